package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

const defaultUpdateHandler = "update"

// CommitType picks between a durable commit and a near real time one.
type CommitType string

const (
	CommitHard CommitType = "hard"
	CommitSoft CommitType = "soft"
)

func (c CommitType) appendParams(v url.Values) {
	switch c {
	case CommitSoft:
		v.Set("softCommit", "true")
	default:
		v.Set("commit", "true")
	}
}

type UpdateQuery struct {
	Handler string     `json:"handler" yaml:"handler"`
	Commit  CommitType `json:"commit" yaml:"commit"`
}

func NewUpdateQuery() UpdateQuery {
	return UpdateQuery{Handler: defaultUpdateHandler, Commit: CommitHard}
}

func (q UpdateQuery) WithHandler(handler string) UpdateQuery {
	q.Handler = handler
	return q
}

func (q UpdateQuery) WithCommit(commit CommitType) UpdateQuery {
	q.Commit = commit
	return q
}

func (q UpdateQuery) handler() string {
	if q.Handler == "" {
		return defaultUpdateHandler
	}
	return q.Handler
}

func (q UpdateQuery) params() url.Values {
	v := url.Values{
		"overwrite": {"true"},
		"wt":        {"json"},
	}
	q.Commit.appendParams(v)
	return v
}

// Execute indexes docs, which must serialize to a JSON array.
func (q UpdateQuery) Execute(ctx context.Context, s *ServerContext, collection string, docs interface{}) (*SolrResponse, error) {
	b, err := json.Marshal(docs)
	if err != nil {
		return nil, errors.Wrap(err, "encoding update documents")
	}
	if trimmed := bytes.TrimSpace(b); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotAnArray
	}
	handler := q.handler()
	return s.doRequest(ctx, solrRequest{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/solr/%s/%s", collection, handler),
		handler:     handler,
		params:      q.params(),
		body:        b,
		contentType: contentTypeJSON,
	})
}
