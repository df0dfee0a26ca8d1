package solr

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// JSONFacetComponent is sent as the json.facet parameter.
type JSONFacetComponent struct {
	Facets map[string]JSONFacet `json:"facets" yaml:"facets"`
}

func NewJSONFacetComponent() JSONFacetComponent {
	return JSONFacetComponent{}
}

func (c JSONFacetComponent) WithFacet(name string, facet JSONFacet) JSONFacetComponent {
	c.Facets = withFacet(c.Facets, name, facet)
	return c
}

func (c JSONFacetComponent) appendParams(p map[string]interface{}) error {
	if len(c.Facets) == 0 {
		return nil
	}
	b, err := json.Marshal(c.Facets)
	if err != nil {
		return errors.Wrap(err, "encoding json.facet")
	}
	p["json.facet"] = string(b)
	return nil
}

// JSONFacet is exactly one of a terms facet, a query facet or a stat
// expression such as "sum(price)".
type JSONFacet struct {
	Terms *JSONTermsFacet `json:"-" yaml:"terms,omitempty"`
	Query *JSONQueryFacet `json:"-" yaml:"query,omitempty"`
	Stat  string          `json:"-" yaml:"stat,omitempty"`
}

func JSONTerms(field string) JSONTermsFacet {
	return JSONTermsFacet{Field: field}
}

func JSONQuery(q string) JSONQueryFacet {
	return JSONQueryFacet{Q: q}
}

func JSONStat(expr string) JSONFacet {
	return JSONFacet{Stat: expr}
}

func (f JSONFacet) MarshalJSON() ([]byte, error) {
	switch {
	case f.Terms != nil:
		type terms JSONTermsFacet
		return json.Marshal(struct {
			Type string `json:"type"`
			*terms
		}{Type: "terms", terms: (*terms)(f.Terms)})
	case f.Query != nil:
		type query JSONQueryFacet
		return json.Marshal(struct {
			Type string `json:"type"`
			*query
		}{Type: "query", query: (*query)(f.Query)})
	case f.Stat != "":
		return json.Marshal(f.Stat)
	default:
		return nil, errors.New("empty json facet")
	}
}

func (f *JSONFacet) UnmarshalJSON(b []byte) error {
	*f = JSONFacet{}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &f.Stat)
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return NewDecodeError("json.facet", err)
	}
	switch head.Type {
	case "terms":
		type terms JSONTermsFacet
		var t terms
		if err := json.Unmarshal(b, &t); err != nil {
			return NewDecodeError("json.facet", err)
		}
		f.Terms = (*JSONTermsFacet)(&t)
	case "query":
		type query JSONQueryFacet
		var q query
		if err := json.Unmarshal(b, &q); err != nil {
			return NewDecodeError("json.facet", err)
		}
		f.Query = (*JSONQueryFacet)(&q)
	default:
		return NewDecodeError("json.facet", errors.Errorf("unknown facet type %q", head.Type))
	}
	return nil
}

type JSONTermsFacet struct {
	Field       string               `json:"field" yaml:"field"`
	Offset      *int                 `json:"offset,omitempty" yaml:"offset,omitempty"`
	Limit       *int                 `json:"limit,omitempty" yaml:"limit,omitempty"`
	Sort        string               `json:"sort,omitempty" yaml:"sort,omitempty"`
	Overrequest *int                 `json:"overrequest,omitempty" yaml:"overrequest,omitempty"`
	Refine      *bool                `json:"refine,omitempty" yaml:"refine,omitempty"`
	MinCount    *int                 `json:"mincount,omitempty" yaml:"mincount,omitempty"`
	Missing     *bool                `json:"missing,omitempty" yaml:"missing,omitempty"`
	NumBuckets  *bool                `json:"numBuckets,omitempty" yaml:"numBuckets,omitempty"`
	AllBuckets  *bool                `json:"allBuckets,omitempty" yaml:"allBuckets,omitempty"`
	Prefix      string               `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Method      string               `json:"method,omitempty" yaml:"method,omitempty"`
	Facets      map[string]JSONFacet `json:"facet,omitempty" yaml:"facet,omitempty"`
}

func (t JSONTermsFacet) WithLimit(limit int) JSONTermsFacet {
	t.Limit = &limit
	return t
}

func (t JSONTermsFacet) WithOffset(offset int) JSONTermsFacet {
	t.Offset = &offset
	return t
}

func (t JSONTermsFacet) WithSort(sort string) JSONTermsFacet {
	t.Sort = sort
	return t
}

func (t JSONTermsFacet) WithMinCount(minCount int) JSONTermsFacet {
	t.MinCount = &minCount
	return t
}

func (t JSONTermsFacet) WithMissing(missing bool) JSONTermsFacet {
	t.Missing = &missing
	return t
}

func (t JSONTermsFacet) WithNumBuckets(numBuckets bool) JSONTermsFacet {
	t.NumBuckets = &numBuckets
	return t
}

func (t JSONTermsFacet) WithAllBuckets(allBuckets bool) JSONTermsFacet {
	t.AllBuckets = &allBuckets
	return t
}

func (t JSONTermsFacet) WithPrefix(prefix string) JSONTermsFacet {
	t.Prefix = prefix
	return t
}

func (t JSONTermsFacet) WithFacet(name string, facet JSONFacet) JSONTermsFacet {
	t.Facets = withFacet(t.Facets, name, facet)
	return t
}

func (t JSONTermsFacet) Facet() JSONFacet {
	return JSONFacet{Terms: &t}
}

type JSONQueryFacet struct {
	Q      string               `json:"q" yaml:"q"`
	Limit  *int                 `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset *int                 `json:"offset,omitempty" yaml:"offset,omitempty"`
	Sort   string               `json:"sort,omitempty" yaml:"sort,omitempty"`
	FQ     []string             `json:"fq,omitempty" yaml:"fq,omitempty"`
	Facets map[string]JSONFacet `json:"facet,omitempty" yaml:"facet,omitempty"`
}

func (q JSONQueryFacet) WithFQ(fq ...string) JSONQueryFacet {
	q.FQ = append(append([]string(nil), q.FQ...), fq...)
	return q
}

func (q JSONQueryFacet) WithFacet(name string, facet JSONFacet) JSONQueryFacet {
	q.Facets = withFacet(q.Facets, name, facet)
	return q
}

func (q JSONQueryFacet) Facet() JSONFacet {
	return JSONFacet{Query: &q}
}

func withFacet(facets map[string]JSONFacet, name string, facet JSONFacet) map[string]JSONFacet {
	out := make(map[string]JSONFacet, len(facets)+1)
	for k, v := range facets {
		out[k] = v
	}
	out[name] = facet
	return out
}

var reservedJSONFacetKeys = map[string]bool{
	"val":        true,
	"count":      true,
	"numBuckets": true,
	"missing":    true,
	"allBuckets": true,
	"buckets":    true,
}

// JSONFacetResponse is one node of the facets tree. Keys that are not
// reserved land in NestedFacets when they decode as a facet node and in
// FlatFacets otherwise.
type JSONFacetResponse struct {
	Val          json.RawMessage
	Count        *int64
	NumBuckets   *int64
	Missing      *JSONFacetResponse
	AllBuckets   *JSONFacetResponse
	Buckets      []JSONFacetResponse
	NestedFacets map[string]JSONFacetResponse
	FlatFacets   map[string]json.RawMessage
}

func (r *JSONFacetResponse) UnmarshalJSON(b []byte) error {
	node, err := decodeJSONFacet(b)
	if err != nil {
		return NewDecodeError("facets", err)
	}
	*r = node
	return nil
}

func decodeJSONFacet(b []byte) (JSONFacetResponse, error) {
	var node JSONFacetResponse
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return node, errors.New("null is not a facet")
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return node, err
	}
	if raw, ok := m["val"]; ok {
		node.Val = raw
	}
	if raw, ok := m["count"]; ok {
		var count int64
		if err := json.Unmarshal(raw, &count); err != nil {
			return node, errors.Wrap(err, "count")
		}
		node.Count = &count
	}
	if raw, ok := m["numBuckets"]; ok {
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return node, errors.Wrap(err, "numBuckets")
		}
		node.NumBuckets = &n
	}
	if raw, ok := m["missing"]; ok {
		missing, err := decodeJSONFacet(raw)
		if err != nil {
			return node, errors.Wrap(err, "missing")
		}
		node.Missing = &missing
	}
	if raw, ok := m["allBuckets"]; ok {
		all, err := decodeJSONFacet(raw)
		if err != nil {
			return node, errors.Wrap(err, "allBuckets")
		}
		node.AllBuckets = &all
	}
	if raw, ok := m["buckets"]; ok {
		var buckets []json.RawMessage
		if err := json.Unmarshal(raw, &buckets); err != nil {
			return node, errors.Wrap(err, "buckets")
		}
		node.Buckets = make([]JSONFacetResponse, 0, len(buckets))
		for i, bucket := range buckets {
			child, err := decodeJSONFacet(bucket)
			if err != nil {
				return node, errors.Wrapf(err, "bucket %d", i)
			}
			node.Buckets = append(node.Buckets, child)
		}
	}
	for key, raw := range m {
		if reservedJSONFacetKeys[key] {
			continue
		}
		if nested, err := decodeJSONFacet(raw); err == nil {
			if node.NestedFacets == nil {
				node.NestedFacets = make(map[string]JSONFacetResponse)
			}
			node.NestedFacets[key] = nested
			continue
		}
		if node.FlatFacets == nil {
			node.FlatFacets = make(map[string]json.RawMessage)
		}
		node.FlatFacets[key] = raw
	}
	return node, nil
}

func (r *JSONFacetResponse) GetVal(v interface{}) error {
	return decodeRaw("facets.val", r.Val, v)
}

func JSONFacetVal[T any](r *JSONFacetResponse) (T, error) {
	var v T
	err := r.GetVal(&v)
	return v, err
}

func (r *JSONFacetResponse) GetNestedFacet(name string) (*JSONFacetResponse, bool) {
	nested, ok := r.NestedFacets[name]
	if !ok {
		return nil, false
	}
	return &nested, true
}

func (r *JSONFacetResponse) GetFlatFacet(name string, v interface{}) error {
	raw, ok := r.FlatFacets[name]
	if !ok {
		return NewDecodeError("facets."+name, errors.New("flat facet not present"))
	}
	return decodeRaw("facets."+name, raw, v)
}

// FacetNames lists the classified keys in a stable order.
func (r *JSONFacetResponse) FacetNames() []string {
	names := make([]string, 0, len(r.NestedFacets)+len(r.FlatFacets))
	for name := range r.NestedFacets {
		names = append(names, name)
	}
	for name := range r.FlatFacets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
