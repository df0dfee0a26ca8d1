package solr

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// DeleteQuery removes documents by id and by query through an XML update body.
type DeleteQuery struct {
	Handler string     `json:"handler" yaml:"handler"`
	Commit  CommitType `json:"commit" yaml:"commit"`
	IDs     []string   `json:"ids,omitempty" yaml:"ids,omitempty"`
	Queries []string   `json:"queries,omitempty" yaml:"queries,omitempty"`
}

func NewDeleteQuery() DeleteQuery {
	return DeleteQuery{Handler: defaultUpdateHandler, Commit: CommitHard}
}

func (q DeleteQuery) WithHandler(handler string) DeleteQuery {
	q.Handler = handler
	return q
}

func (q DeleteQuery) WithCommit(commit CommitType) DeleteQuery {
	q.Commit = commit
	return q
}

func (q DeleteQuery) WithIDs(ids ...string) DeleteQuery {
	q.IDs = append(append([]string(nil), q.IDs...), ids...)
	return q
}

func (q DeleteQuery) WithQueries(queries ...string) DeleteQuery {
	q.Queries = append(append([]string(nil), q.Queries...), queries...)
	return q
}

type deleteBody struct {
	XMLName xml.Name `xml:"delete"`
	IDs     []string `xml:"id"`
	Queries []string `xml:"query"`
}

func (q DeleteQuery) body() ([]byte, error) {
	b, err := xml.Marshal(deleteBody{IDs: q.IDs, Queries: q.Queries})
	if err != nil {
		return nil, errors.Wrap(err, "encoding delete body")
	}
	return b, nil
}

func (q DeleteQuery) Execute(ctx context.Context, s *ServerContext, collection string) (*SolrResponse, error) {
	if len(q.IDs) == 0 && len(q.Queries) == 0 {
		return nil, ErrNothingToDelete
	}
	b, err := q.body()
	if err != nil {
		return nil, err
	}
	handler := q.Handler
	if handler == "" {
		handler = defaultUpdateHandler
	}
	return s.doRequest(ctx, solrRequest{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/solr/%s/%s", collection, handler),
		handler:     handler,
		params:      UpdateQuery{Commit: q.Commit}.params(),
		body:        b,
		contentType: contentTypeXML,
	})
}
