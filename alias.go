package solr

import (
	"context"
	"net/url"
	"strings"
)

// CreateAlias points name at one or more collections, replacing any
// previous target.
func CreateAlias(ctx context.Context, s *ServerContext, name string, collections []string) (*SolrResponse, error) {
	return s.admin(ctx, collectionsAdminPath, "CREATEALIAS", url.Values{
		"name":        {name},
		"collections": {strings.Join(collections, ",")},
	})
}

// GetAliases maps every alias to its collections.
func GetAliases(ctx context.Context, s *ServerContext) (map[string][]string, error) {
	resp, err := s.admin(ctx, collectionsAdminPath, "LISTALIASES", nil)
	if err != nil {
		return nil, err
	}
	return resp.AliasCollections(), nil
}

func AliasExists(ctx context.Context, s *ServerContext, name string) (bool, error) {
	aliases, err := GetAliases(ctx, s)
	if err != nil {
		return false, err
	}
	_, ok := aliases[name]
	return ok, nil
}

func DeleteAlias(ctx context.Context, s *ServerContext, name string) (*SolrResponse, error) {
	return s.admin(ctx, collectionsAdminPath, "DELETEALIAS", url.Values{"name": {name}})
}
