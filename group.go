package solr

import (
	"encoding/json"
)

type GroupFormat string

const (
	GroupFormatGrouped GroupFormat = "grouped"
	GroupFormatSimple  GroupFormat = "simple"
)

// GroupingComponent renders the group.* parameters. Truncate and Facet are
// sent as given.
type GroupingComponent struct {
	Fields   []string    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Queries  []string    `json:"queries,omitempty" yaml:"queries,omitempty"`
	Limit    *int        `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset   *int        `json:"offset,omitempty" yaml:"offset,omitempty"`
	Sort     string      `json:"sort,omitempty" yaml:"sort,omitempty"`
	Format   GroupFormat `json:"format,omitempty" yaml:"format,omitempty"`
	Main     *bool       `json:"main,omitempty" yaml:"main,omitempty"`
	NGroups  *bool       `json:"ngroups,omitempty" yaml:"ngroups,omitempty"`
	Truncate *bool       `json:"truncate,omitempty" yaml:"truncate,omitempty"`
	Facet    *bool       `json:"facet,omitempty" yaml:"facet,omitempty"`
}

func NewGroupingComponent() GroupingComponent {
	return GroupingComponent{}
}

func (g GroupingComponent) WithFields(fields ...string) GroupingComponent {
	g.Fields = append(append([]string(nil), g.Fields...), fields...)
	return g
}

func (g GroupingComponent) WithQueries(queries ...string) GroupingComponent {
	g.Queries = append(append([]string(nil), g.Queries...), queries...)
	return g
}

func (g GroupingComponent) WithLimit(limit int) GroupingComponent {
	g.Limit = &limit
	return g
}

func (g GroupingComponent) WithOffset(offset int) GroupingComponent {
	g.Offset = &offset
	return g
}

func (g GroupingComponent) WithSort(sort string) GroupingComponent {
	g.Sort = sort
	return g
}

func (g GroupingComponent) WithFormat(format GroupFormat) GroupingComponent {
	g.Format = format
	return g
}

func (g GroupingComponent) WithMain(main bool) GroupingComponent {
	g.Main = &main
	return g
}

func (g GroupingComponent) WithNGroups(ngroups bool) GroupingComponent {
	g.NGroups = &ngroups
	return g
}

func (g GroupingComponent) WithTruncate(truncate bool) GroupingComponent {
	g.Truncate = &truncate
	return g
}

func (g GroupingComponent) WithFacet(facet bool) GroupingComponent {
	g.Facet = &facet
	return g
}

func (g GroupingComponent) appendParams(p map[string]interface{}) {
	p["group"] = true
	if len(g.Fields) > 0 {
		p["group.field"] = g.Fields
	}
	if len(g.Queries) > 0 {
		p["group.query"] = g.Queries
	}
	if g.Limit != nil {
		p["group.limit"] = *g.Limit
	}
	if g.Offset != nil {
		p["group.offset"] = *g.Offset
	}
	if g.Sort != "" {
		p["group.sort"] = g.Sort
	}
	if g.Format != "" {
		p["group.format"] = string(g.Format)
	}
	if g.Main != nil {
		p["group.main"] = *g.Main
	}
	if g.NGroups != nil {
		p["group.ngroups"] = *g.NGroups
	}
	if g.Truncate != nil {
		p["group.truncate"] = *g.Truncate
	}
	if g.Facet != nil {
		p["group.facet"] = *g.Facet
	}
}

// GroupResult is one entry of the grouped section, keyed by field name or
// query. Field grouping fills Groups, query grouping and the simple format
// fill DocList.
type GroupResult struct {
	Matches int64              `json:"matches"`
	NGroups *int64             `json:"ngroups,omitempty"`
	Groups  []GroupFieldResult `json:"groups,omitempty"`
	DocList *DocumentResponse  `json:"doclist,omitempty"`
}

type GroupFieldResult struct {
	GroupValue json.RawMessage  `json:"groupValue"`
	DocList    DocumentResponse `json:"doclist"`
}

// GetGroupValue decodes the group key. A null key is the group of documents
// without a value and decodes to the zero value of v.
func (g GroupFieldResult) GetGroupValue(v interface{}) error {
	return decodeRaw("grouped.groupValue", g.GroupValue, v)
}

func GroupValue[T any](g GroupFieldResult) (T, error) {
	var v T
	err := g.GetGroupValue(&v)
	return v, err
}

// GetFieldResult returns the group result of a group.field.
func (r *SolrResponse) GetFieldResult(field string) (*GroupResult, bool) {
	return r.groupResult(field)
}

// GetQueryResult returns the group result of a group.query.
func (r *SolrResponse) GetQueryResult(query string) (*GroupResult, bool) {
	return r.groupResult(query)
}

func (r *SolrResponse) groupResult(key string) (*GroupResult, bool) {
	if r == nil || r.Grouped == nil {
		return nil, false
	}
	g, ok := r.Grouped[key]
	if !ok {
		return nil, false
	}
	return &g, true
}

// Len counts documents over every sub group.
func (g *GroupResult) Len() (int, error) {
	if g.DocList != nil {
		return g.DocList.Len()
	}
	total := 0
	for i := range g.Groups {
		n, err := g.Groups[i].DocList.Len()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
