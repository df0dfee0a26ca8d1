package solr

import (
	"context"
	"net/http"
	"net/url"
)

const (
	collectionsAdminPath = "/solr/admin/collections"
	configsAdminPath     = "/solr/admin/configs"
)

func adminRequest(path string, action string, params url.Values) solrRequest {
	v := url.Values{}
	for key, values := range params {
		v[key] = values
	}
	v.Set("action", action)
	v.Set("wt", "json")
	return solrRequest{
		method:  http.MethodGet,
		path:    path,
		handler: "admin",
		params:  v,
	}
}

func (s *ServerContext) admin(ctx context.Context, path string, action string, params url.Values) (*SolrResponse, error) {
	return s.doRequest(ctx, adminRequest(path, action, params))
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}
