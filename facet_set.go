package solr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

type FieldFacetSort string

const (
	FieldFacetSortCount FieldFacetSort = "count"
	FieldFacetSortIndex FieldFacetSort = "index"
)

type FieldFacetMethod string

const (
	FieldFacetMethodEnum FieldFacetMethod = "enum"
	FieldFacetMethodFC   FieldFacetMethod = "fc"
	FieldFacetMethodFCS  FieldFacetMethod = "fcs"
)

// FacetSetComponent requests classic facets: query, field and pivot.
type FacetSetComponent struct {
	Queries []string             `json:"queries,omitempty" yaml:"queries,omitempty"`
	Fields  *FieldFacetComponent `json:"fields,omitempty" yaml:"fields,omitempty"`
	Pivots  *PivotFacetComponent `json:"pivots,omitempty" yaml:"pivots,omitempty"`
}

func NewFacetSetComponent() FacetSetComponent {
	return FacetSetComponent{}
}

func (c FacetSetComponent) WithQueries(queries ...string) FacetSetComponent {
	c.Queries = append(append([]string(nil), c.Queries...), queries...)
	return c
}

func (c FacetSetComponent) WithFields(fields FieldFacetComponent) FacetSetComponent {
	c.Fields = &fields
	return c
}

func (c FacetSetComponent) WithPivots(pivots PivotFacetComponent) FacetSetComponent {
	c.Pivots = &pivots
	return c
}

func (c FacetSetComponent) appendParams(p map[string]interface{}) {
	p["facet"] = true
	if len(c.Queries) > 0 {
		p["facet.query"] = c.Queries
	}
	if c.Fields != nil {
		c.Fields.appendParams(p)
	}
	if c.Pivots != nil {
		c.Pivots.appendParams(p)
	}
}

// FieldFacetOptions apply globally on a FieldFacetComponent, or to one field
// on a FieldFacetEntry.
type FieldFacetOptions struct {
	Prefix             string           `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Contains           string           `json:"contains,omitempty" yaml:"contains,omitempty"`
	ContainsIgnoreCase *bool            `json:"containsIgnoreCase,omitempty" yaml:"containsIgnoreCase,omitempty"`
	Sort               FieldFacetSort   `json:"sort,omitempty" yaml:"sort,omitempty"`
	Limit              *int             `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset             *int             `json:"offset,omitempty" yaml:"offset,omitempty"`
	MinCount           *int             `json:"minCount,omitempty" yaml:"minCount,omitempty"`
	Missing            *bool            `json:"missing,omitempty" yaml:"missing,omitempty"`
	Method             FieldFacetMethod `json:"method,omitempty" yaml:"method,omitempty"`
	EnumCacheMinDf     *int             `json:"enumCacheMinDf,omitempty" yaml:"enumCacheMinDf,omitempty"`
	Exists             *bool            `json:"exists,omitempty" yaml:"exists,omitempty"`
}

func (o FieldFacetOptions) appendParams(p map[string]interface{}, prefix string) {
	if o.Prefix != "" {
		p[prefix+"facet.prefix"] = o.Prefix
	}
	if o.Contains != "" {
		p[prefix+"facet.contains"] = o.Contains
	}
	if o.ContainsIgnoreCase != nil {
		p[prefix+"facet.contains.ignoreCase"] = *o.ContainsIgnoreCase
	}
	if o.Sort != "" {
		p[prefix+"facet.sort"] = string(o.Sort)
	}
	if o.Limit != nil {
		p[prefix+"facet.limit"] = *o.Limit
	}
	if o.Offset != nil {
		p[prefix+"facet.offset"] = *o.Offset
	}
	if o.MinCount != nil {
		p[prefix+"facet.mincount"] = *o.MinCount
	}
	if o.Missing != nil {
		p[prefix+"facet.missing"] = *o.Missing
	}
	if o.Method != "" {
		p[prefix+"facet.method"] = string(o.Method)
	}
	if o.EnumCacheMinDf != nil {
		p[prefix+"facet.enum.cache.minDf"] = *o.EnumCacheMinDf
	}
	if o.Exists != nil {
		p[prefix+"facet.exists"] = *o.Exists
	}
}

type FieldFacetEntry struct {
	Field             string `json:"field" yaml:"field"`
	FieldFacetOptions `yaml:",inline"`
}

func NewFieldFacetEntry(field string) FieldFacetEntry {
	return FieldFacetEntry{Field: field}
}

type FieldFacetComponent struct {
	Fields            []FieldFacetEntry `json:"fields" yaml:"fields"`
	FieldFacetOptions `yaml:",inline"`
}

func NewFieldFacetComponent(fields ...FieldFacetEntry) FieldFacetComponent {
	return FieldFacetComponent{Fields: fields}
}

func (c FieldFacetComponent) WithPrefix(prefix string) FieldFacetComponent {
	c.Prefix = prefix
	return c
}

func (c FieldFacetComponent) WithSort(sort FieldFacetSort) FieldFacetComponent {
	c.Sort = sort
	return c
}

func (c FieldFacetComponent) WithLimit(limit int) FieldFacetComponent {
	c.Limit = &limit
	return c
}

func (c FieldFacetComponent) WithOffset(offset int) FieldFacetComponent {
	c.Offset = &offset
	return c
}

func (c FieldFacetComponent) WithMinCount(minCount int) FieldFacetComponent {
	c.MinCount = &minCount
	return c
}

func (c FieldFacetComponent) WithMissing(missing bool) FieldFacetComponent {
	c.Missing = &missing
	return c
}

func (c FieldFacetComponent) WithMethod(method FieldFacetMethod) FieldFacetComponent {
	c.Method = method
	return c
}

func (c FieldFacetComponent) appendParams(p map[string]interface{}) {
	fields := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		fields = append(fields, f.Field)
		f.FieldFacetOptions.appendParams(p, fmt.Sprintf("f.%s.", f.Field))
	}
	p["facet.field"] = fields
	c.FieldFacetOptions.appendParams(p, "")
}

type PivotFacetComponent struct {
	Pivots   []string `json:"pivots" yaml:"pivots"`
	MinCount *int     `json:"minCount,omitempty" yaml:"minCount,omitempty"`
}

// NewPivotFacetComponent takes pivots such as "cat,inStock".
func NewPivotFacetComponent(pivots ...string) PivotFacetComponent {
	return PivotFacetComponent{Pivots: pivots}
}

func (c PivotFacetComponent) WithMinCount(minCount int) PivotFacetComponent {
	c.MinCount = &minCount
	return c
}

func (c PivotFacetComponent) appendParams(p map[string]interface{}) {
	p["facet.pivot"] = c.Pivots
	if c.MinCount != nil {
		p["facet.pivot.mincount"] = *c.MinCount
	}
}

// FacetSet is the decoded facet_counts section.
type FacetSet struct {
	Queries map[string]int64
	Fields  map[string][]FieldFacet
	Pivots  map[string][]PivotFacet
}

// FieldFacet is one key/count pair. Missing marks the facet.missing bucket.
type FieldFacet struct {
	Key     string
	Count   int64
	Missing bool
}

type rawFacetSet struct {
	Queries map[string]int64             `json:"facet_queries,omitempty"`
	Fields  map[string][]json.RawMessage `json:"facet_fields,omitempty"`
	Pivots  map[string][]PivotFacet      `json:"facet_pivot,omitempty"`
}

func (f *FacetSet) UnmarshalJSON(b []byte) error {
	var raw rawFacetSet
	if err := json.Unmarshal(b, &raw); err != nil {
		return NewDecodeError("facet_counts", err)
	}
	f.Queries = raw.Queries
	f.Pivots = raw.Pivots
	f.Fields = nil
	if raw.Fields != nil {
		f.Fields = make(map[string][]FieldFacet, len(raw.Fields))
		for field, flat := range raw.Fields {
			pairs, err := pairFieldFacets(flat)
			if err != nil {
				return NewDecodeError(fmt.Sprintf("facet_fields.%s", field), err)
			}
			f.Fields[field] = pairs
		}
	}
	return nil
}

// MarshalJSON writes field facets back in the flattened wire format.
func (f FacetSet) MarshalJSON() ([]byte, error) {
	raw := rawFacetSet{Queries: f.Queries, Pivots: f.Pivots}
	if f.Fields != nil {
		raw.Fields = make(map[string][]json.RawMessage, len(f.Fields))
		for field, pairs := range f.Fields {
			flat := make([]json.RawMessage, 0, 2*len(pairs))
			for _, pair := range pairs {
				key := json.RawMessage("null")
				if !pair.Missing {
					b, err := json.Marshal(pair.Key)
					if err != nil {
						return nil, err
					}
					key = b
				}
				flat = append(flat, key, json.RawMessage(strconv.FormatInt(pair.Count, 10)))
			}
			raw.Fields[field] = flat
		}
	}
	return json.Marshal(raw)
}

// pairFieldFacets turns [key1, count1, key2, count2, ...] into pairs.
func pairFieldFacets(flat []json.RawMessage) ([]FieldFacet, error) {
	if len(flat)%2 != 0 {
		return nil, errors.Errorf("odd number of elements (%d) in field facet", len(flat))
	}
	pairs := make([]FieldFacet, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		var pair FieldFacet
		key := bytes.TrimSpace(flat[i])
		switch {
		case bytes.Equal(key, []byte("null")):
			pair.Missing = true
		case len(key) > 0 && key[0] == '"':
			if err := json.Unmarshal(key, &pair.Key); err != nil {
				return nil, errors.Wrapf(err, "facet key at %d", i)
			}
		default:
			pair.Key = string(key)
		}
		if err := json.Unmarshal(flat[i+1], &pair.Count); err != nil {
			return nil, errors.Wrapf(err, "facet count at %d", i+1)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// PivotFacet is one node of a pivot tree. Value keeps Solr's raw scalar.
type PivotFacet struct {
	Field   string           `json:"field"`
	Value   json.RawMessage  `json:"value"`
	Count   int64            `json:"count"`
	Pivot   []PivotFacet     `json:"pivot,omitempty"`
	Queries map[string]int64 `json:"queries,omitempty"`
}

func (p PivotFacet) GetValue(v interface{}) error {
	return decodeRaw("facet_pivot.value", p.Value, v)
}

func PivotValue[T any](p PivotFacet) (T, error) {
	var v T
	err := p.GetValue(&v)
	return v, err
}
