package solr

import (
	"context"
	"net/http"
)

// HostResolver yields the base url (scheme://host:port) of a node to talk to.
// It is called once per outgoing request.
type HostResolver interface {
	ResolveHost(ctx context.Context) (string, error)
}

// SolrAuth decorates an outgoing request with credentials.
type SolrAuth interface {
	AuthorizeRequest(req *http.Request)
}

type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type HTTPer interface {
	Do(*http.Request) (*http.Response, error)
}
