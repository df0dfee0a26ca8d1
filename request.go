package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	contentTypeJSON   = "application/json"
	contentTypeXML    = "application/xml"
	contentTypeStream = "application/octet-stream"
	errBodyReadLimit  = 1024
)

// solrRequest describes one call relative to a resolved base url.
type solrRequest struct {
	method      string
	path        string
	handler     string
	params      url.Values
	header      http.Header
	body        []byte
	contentType string
}

func newJSONRequest(method string, path string, handler string, params url.Values, v interface{}) (solrRequest, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return solrRequest{}, errors.Wrapf(err, "encoding body for %s", path)
	}
	return solrRequest{
		method:      method,
		path:        path,
		handler:     handler,
		params:      params,
		body:        buf.Bytes(),
		contentType: contentTypeJSON,
	}, nil
}

// doRequest resolves a node, sends r exactly once and decodes the envelope.
func (s *ServerContext) doRequest(ctx context.Context, r solrRequest) (*SolrResponse, error) {
	host, err := s.host.ResolveHost(ctx)
	if err != nil {
		s.metrics.resolutionFailed()
		return nil, err
	}
	u := host + r.path

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for %s", u)
	}
	if len(r.params) > 0 {
		req.URL.RawQuery = r.params.Encode()
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for key, values := range r.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if s.auth != nil {
		s.auth.AuthorizeRequest(req)
	}

	s.logger.Debug("sending solr request", "method", r.method, "url", u, "params", req.URL.RawQuery)
	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.observe(r.method, r.handler, "transport_error", time.Since(start))
		s.logger.Error("solr request failed", "url", u, "error", err)
		return nil, NewTransportError(u, err)
	}
	defer resp.Body.Close()
	s.metrics.observe(r.method, r.handler, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewAuthError(u, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(u, errors.Wrap(err, "reading response body"))
	}
	return decodeResponse(u, resp.StatusCode, data)
}

func decodeResponse(u string, status int, data []byte) (*SolrResponse, error) {
	var sr SolrResponse
	var decodeErr error
	if len(bytes.TrimSpace(data)) > 0 {
		decodeErr = json.Unmarshal(data, &sr)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		solrErr := NewSolrResponseError(u, status, "")
		if decodeErr == nil && sr.Error != nil {
			fillSolrError(solrErr, sr.Error)
		} else {
			solrErr.Msg = truncate(string(data), errBodyReadLimit)
		}
		return nil, solrErr
	}
	if decodeErr != nil {
		return nil, NewDecodeError("response", decodeErr)
	}
	if sr.Error != nil {
		solrErr := NewSolrResponseError(u, status, "")
		fillSolrError(solrErr, sr.Error)
		if sr.Error.Code != 0 {
			solrErr.Status = sr.Error.Code
		}
		return nil, solrErr
	}
	return &sr, nil
}

func fillSolrError(target *SolrResponseError, body *ErrorBody) {
	target.Msg = body.Msg
	target.Trace = body.Trace
	target.Metadata = body.Metadata
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return fmt.Sprintf("%s...", s[:limit])
}
