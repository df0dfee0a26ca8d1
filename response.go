package solr

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// SolrResponse is the envelope every handler answers with. Sections are nil
// when Solr did not send them.
type SolrResponse struct {
	Header         *ResponseHeader        `json:"responseHeader,omitempty"`
	Error          *ErrorBody             `json:"error,omitempty"`
	Response       *DocumentResponse      `json:"response,omitempty"`
	ConfigSets     []string               `json:"configSets,omitempty"`
	Collections    []string               `json:"collections,omitempty"`
	Aliases        map[string]string      `json:"aliases,omitempty"`
	Grouped        map[string]GroupResult `json:"grouped,omitempty"`
	NextCursorMark *string                `json:"nextCursorMark,omitempty"`
	FacetCounts    *FacetSet              `json:"facet_counts,omitempty"`
	Facets         *JSONFacetResponse     `json:"facets,omitempty"`
	Stats          *StatsResponse         `json:"stats,omitempty"`
}

type ResponseHeader struct {
	Status      int                    `json:"status"`
	QTime       int                    `json:"QTime"`
	ZkConnected *bool                  `json:"zkConnected,omitempty"`
	Params      map[string]interface{} `json:"params,omitempty"`
}

type ErrorBody struct {
	Metadata []string `json:"metadata,omitempty"`
	Msg      string   `json:"msg,omitempty"`
	Trace    string   `json:"trace,omitempty"`
	Code     int      `json:"code"`
}

// DocumentResponse keeps docs raw until a caller asks for a concrete type.
type DocumentResponse struct {
	NumFound      int64           `json:"numFound"`
	NumFoundExact *bool           `json:"numFoundExact,omitempty"`
	Start         int64           `json:"start"`
	MaxScore      *float64        `json:"maxScore,omitempty"`
	Docs          json.RawMessage `json:"docs,omitempty"`
}

// Unmarshal decodes the docs into v, typically a pointer to a slice.
func (d *DocumentResponse) Unmarshal(v interface{}) error {
	if d == nil || len(d.Docs) == 0 {
		return nil
	}
	if err := json.Unmarshal(d.Docs, v); err != nil {
		return NewDecodeError("docs", err)
	}
	return nil
}

// Docs decodes the documents of d into T.
func Docs[T any](d *DocumentResponse) ([]T, error) {
	var docs []T
	if err := d.Unmarshal(&docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Len counts the documents without decoding their fields.
func (d *DocumentResponse) Len() (int, error) {
	var raw []json.RawMessage
	if err := d.Unmarshal(&raw); err != nil {
		return 0, err
	}
	return len(raw), nil
}

// AliasCollections splits the comma separated LISTALIASES answer.
func (r *SolrResponse) AliasCollections() map[string][]string {
	aliases := make(map[string][]string, len(r.Aliases))
	for name, cols := range r.Aliases {
		var list []string
		for _, c := range strings.Split(cols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				list = append(list, c)
			}
		}
		aliases[name] = list
	}
	return aliases
}

func GetDocIdFromDoc(m map[string]interface{}) string {
	if v, ok := m["id"].(string); ok {
		return v
	}
	return ""
}

// decodeRaw converts a raw scalar to the caller's type.
func decodeRaw(section string, raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return NewDecodeError(section, errors.New("value not present"))
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return NewDecodeError(section, err)
	}
	return nil
}
