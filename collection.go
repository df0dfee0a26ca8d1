package solr

import (
	"context"
	"net/url"
	"strconv"
)

// CreateCollection creates a collection backed by an uploaded config set.
func CreateCollection(ctx context.Context, s *ServerContext, name string, config string, shards int, replicationFactor int) (*SolrResponse, error) {
	return s.admin(ctx, collectionsAdminPath, "CREATE", url.Values{
		"name":                  {name},
		"collection.configName": {config},
		"numShards":             {strconv.Itoa(shards)},
		"replicationFactor":     {strconv.Itoa(replicationFactor)},
	})
}

func GetCollections(ctx context.Context, s *ServerContext) ([]string, error) {
	resp, err := s.admin(ctx, collectionsAdminPath, "LIST", nil)
	if err != nil {
		return nil, err
	}
	return resp.Collections, nil
}

func CollectionExists(ctx context.Context, s *ServerContext, name string) (bool, error) {
	collections, err := GetCollections(ctx, s)
	if err != nil {
		return false, err
	}
	return contains(collections, name), nil
}

func DeleteCollection(ctx context.Context, s *ServerContext, name string) (*SolrResponse, error) {
	return s.admin(ctx, collectionsAdminPath, "DELETE", url.Values{"name": {name}})
}
