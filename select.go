package solr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

const (
	// CursorMarkStart starts a deep paging walk.
	CursorMarkStart = "*"

	defaultSelectHandler = "select"
	defaultQuery         = "*:*"
	defaultRows          = 10
)

// SelectQuery is a value type, every With call returns a modified copy.
type SelectQuery struct {
	Handler    string                 `json:"handler" yaml:"handler"`
	Q          string                 `json:"q" yaml:"q"`
	FQ         []string               `json:"fq,omitempty" yaml:"fq,omitempty"`
	FL         []string               `json:"fl,omitempty" yaml:"fl,omitempty"`
	Sort       []string               `json:"sort,omitempty" yaml:"sort,omitempty"`
	Rows       *int                   `json:"rows,omitempty" yaml:"rows,omitempty"`
	Start      int                    `json:"start" yaml:"start"`
	CursorMark *string                `json:"cursorMark,omitempty" yaml:"cursorMark,omitempty"`
	DefType    *DefType               `json:"defType,omitempty" yaml:"defType,omitempty"`
	Grouping   *GroupingComponent     `json:"grouping,omitempty" yaml:"grouping,omitempty"`
	Facets     *FacetSetComponent     `json:"facets,omitempty" yaml:"facets,omitempty"`
	JSONFacet  *JSONFacetComponent    `json:"jsonFacet,omitempty" yaml:"jsonFacet,omitempty"`
	Stats      *StatsComponent        `json:"stats,omitempty" yaml:"stats,omitempty"`
	Params     map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
}

func NewSelectQuery() SelectQuery {
	return SelectQuery{
		Handler: defaultSelectHandler,
		Q:       defaultQuery,
	}
}

func (q SelectQuery) WithHandler(handler string) SelectQuery {
	q.Handler = handler
	return q
}

func (q SelectQuery) WithQ(query string) SelectQuery {
	q.Q = query
	return q
}

func (q SelectQuery) WithFQ(fq ...string) SelectQuery {
	q.FQ = append(append([]string(nil), q.FQ...), fq...)
	return q
}

func (q SelectQuery) WithFL(fl ...string) SelectQuery {
	q.FL = append(append([]string(nil), q.FL...), fl...)
	return q
}

// WithSort takes clauses such as "id asc".
func (q SelectQuery) WithSort(sort ...string) SelectQuery {
	q.Sort = append(append([]string(nil), q.Sort...), sort...)
	return q
}

// WithRows sets the page size. Without it the query asks for 10 rows.
func (q SelectQuery) WithRows(rows int) SelectQuery {
	q.Rows = &rows
	return q
}

func (q SelectQuery) WithStart(start int) SelectQuery {
	q.Start = start
	return q
}

func (q SelectQuery) WithCursorMark(mark string) SelectQuery {
	q.CursorMark = &mark
	return q
}

func (q SelectQuery) WithDefType(d DefType) SelectQuery {
	q.DefType = &d
	return q
}

func (q SelectQuery) WithGrouping(g GroupingComponent) SelectQuery {
	q.Grouping = &g
	return q
}

func (q SelectQuery) WithFacetSet(f FacetSetComponent) SelectQuery {
	q.Facets = &f
	return q
}

func (q SelectQuery) WithJSONFacet(f JSONFacetComponent) SelectQuery {
	q.JSONFacet = &f
	return q
}

func (q SelectQuery) WithStats(st StatsComponent) SelectQuery {
	q.Stats = &st
	return q
}

// WithParam sets a raw request parameter, e.g. "_route_" or "debug".
func (q SelectQuery) WithParam(key string, value interface{}) SelectQuery {
	params := make(map[string]interface{}, len(q.Params)+1)
	for k, v := range q.Params {
		params[k] = v
	}
	params[key] = value
	q.Params = params
	return q
}

func (q SelectQuery) handler() string {
	if q.Handler == "" {
		return defaultSelectHandler
	}
	return q.Handler
}

func (q SelectQuery) rows() int {
	if q.Rows == nil {
		return defaultRows
	}
	return *q.Rows
}

func (q SelectQuery) params() (map[string]interface{}, error) {
	p := make(map[string]interface{}, len(q.Params)+8)
	for k, v := range q.Params {
		p[k] = v
	}
	query := q.Q
	if query == "" {
		query = defaultQuery
	}
	p["q"] = query
	p["rows"] = q.rows()
	p["start"] = q.Start
	p["wt"] = "json"
	if len(q.FQ) > 0 {
		p["fq"] = q.FQ
	}
	if len(q.FL) > 0 {
		p["fl"] = strings.Join(q.FL, ",")
	}
	if len(q.Sort) > 0 {
		p["sort"] = strings.Join(q.Sort, ",")
	}
	if q.CursorMark != nil {
		p["cursorMark"] = *q.CursorMark
	}
	if q.DefType != nil {
		if err := q.DefType.appendParams(p); err != nil {
			return nil, err
		}
	}
	if q.Grouping != nil {
		q.Grouping.appendParams(p)
	}
	if q.Facets != nil {
		q.Facets.appendParams(p)
	}
	if q.JSONFacet != nil {
		if err := q.JSONFacet.appendParams(p); err != nil {
			return nil, err
		}
	}
	if q.Stats != nil {
		q.Stats.appendParams(p)
	}
	return p, nil
}

// Execute posts the query as {"params": {...}} to the collection's handler.
func (q SelectQuery) Execute(ctx context.Context, s *ServerContext, collection string) (*SolrResponse, error) {
	params, err := q.params()
	if err != nil {
		return nil, err
	}
	handler := q.handler()
	req, err := newJSONRequest(http.MethodPost, fmt.Sprintf("/solr/%s/%s", collection, handler), handler, nil,
		map[string]interface{}{"params": params})
	if err != nil {
		return nil, err
	}
	return s.doRequest(ctx, req)
}

// NextCursor returns the query for the following page. It reports false once
// Solr hands back the cursor mark that was sent.
func (q SelectQuery) NextCursor(resp *SolrResponse) (SelectQuery, bool) {
	if resp == nil || resp.NextCursorMark == nil || q.CursorMark == nil {
		return q, false
	}
	if *resp.NextCursorMark == *q.CursorMark {
		return q, false
	}
	return q.WithCursorMark(*resp.NextCursorMark), true
}

// DefType selects the query parser. Exactly one variant is set.
type DefType struct {
	Lucene  *LuceneQuery  `json:"lucene,omitempty" yaml:"lucene,omitempty"`
	Dismax  *DismaxQuery  `json:"dismax,omitempty" yaml:"dismax,omitempty"`
	Edismax *EdismaxQuery `json:"edismax,omitempty" yaml:"edismax,omitempty"`
}

func Lucene(q LuceneQuery) DefType {
	return DefType{Lucene: &q}
}

func Dismax(q DismaxQuery) DefType {
	return DefType{Dismax: &q}
}

func Edismax(q EdismaxQuery) DefType {
	return DefType{Edismax: &q}
}

func (d *DefType) UnmarshalJSON(b []byte) error {
	type plain DefType
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return NewDecodeError("defType", err)
	}
	decoded := DefType(v)
	if err := decoded.validate(); err != nil {
		return NewDecodeError("defType", err)
	}
	*d = decoded
	return nil
}

func (d DefType) validate() error {
	set := 0
	for _, ok := range []bool{d.Lucene != nil, d.Dismax != nil, d.Edismax != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return errors.Errorf("expected exactly one of lucene, dismax or edismax, got %d", set)
	}
	return nil
}

func (d DefType) appendParams(p map[string]interface{}) error {
	if err := d.validate(); err != nil {
		return err
	}
	switch {
	case d.Lucene != nil:
		p["defType"] = "lucene"
		d.Lucene.appendParams(p)
	case d.Dismax != nil:
		p["defType"] = "dismax"
		d.Dismax.appendParams(p)
	case d.Edismax != nil:
		p["defType"] = "edismax"
		d.Edismax.appendParams(p)
	}
	return nil
}

type LuceneQuery struct {
	DF  string `json:"df,omitempty" yaml:"df,omitempty"`
	QOp string `json:"q.op,omitempty" yaml:"q.op,omitempty"`
	Sow *bool  `json:"sow,omitempty" yaml:"sow,omitempty"`
}

func (l LuceneQuery) appendParams(p map[string]interface{}) {
	if l.DF != "" {
		p["df"] = l.DF
	}
	if l.QOp != "" {
		p["q.op"] = l.QOp
	}
	if l.Sow != nil {
		p["sow"] = *l.Sow
	}
}

type DismaxQuery struct {
	QAlt string   `json:"q.alt,omitempty" yaml:"q.alt,omitempty"`
	QF   string   `json:"qf,omitempty" yaml:"qf,omitempty"`
	MM   string   `json:"mm,omitempty" yaml:"mm,omitempty"`
	PF   string   `json:"pf,omitempty" yaml:"pf,omitempty"`
	PS   *int     `json:"ps,omitempty" yaml:"ps,omitempty"`
	QS   *int     `json:"qs,omitempty" yaml:"qs,omitempty"`
	Tie  *float64 `json:"tie,omitempty" yaml:"tie,omitempty"`
	BQ   []string `json:"bq,omitempty" yaml:"bq,omitempty"`
	BF   []string `json:"bf,omitempty" yaml:"bf,omitempty"`
}

func (d DismaxQuery) appendParams(p map[string]interface{}) {
	if d.QAlt != "" {
		p["q.alt"] = d.QAlt
	}
	if d.QF != "" {
		p["qf"] = d.QF
	}
	if d.MM != "" {
		p["mm"] = d.MM
	}
	if d.PF != "" {
		p["pf"] = d.PF
	}
	if d.PS != nil {
		p["ps"] = *d.PS
	}
	if d.QS != nil {
		p["qs"] = *d.QS
	}
	if d.Tie != nil {
		p["tie"] = *d.Tie
	}
	if len(d.BQ) > 0 {
		p["bq"] = d.BQ
	}
	if len(d.BF) > 0 {
		p["bf"] = d.BF
	}
}

// EdismaxQuery is dismax plus the extended parser options.
type EdismaxQuery struct {
	DismaxQuery `yaml:",inline"`

	Sow          *bool  `json:"sow,omitempty" yaml:"sow,omitempty"`
	MMAutoRelax  *bool  `json:"mm.autoRelax,omitempty" yaml:"mm.autoRelax,omitempty"`
	Boost        string `json:"boost,omitempty" yaml:"boost,omitempty"`
	LowercaseOps *bool  `json:"lowercaseOperators,omitempty" yaml:"lowercaseOperators,omitempty"`
	PF2          string `json:"pf2,omitempty" yaml:"pf2,omitempty"`
	PS2          *int   `json:"ps2,omitempty" yaml:"ps2,omitempty"`
	PF3          string `json:"pf3,omitempty" yaml:"pf3,omitempty"`
	PS3          *int   `json:"ps3,omitempty" yaml:"ps3,omitempty"`
	StopWords    *bool  `json:"stopwords,omitempty" yaml:"stopwords,omitempty"`
	UF           string `json:"uf,omitempty" yaml:"uf,omitempty"`
}

func (e EdismaxQuery) appendParams(p map[string]interface{}) {
	e.DismaxQuery.appendParams(p)
	if e.Sow != nil {
		p["sow"] = *e.Sow
	}
	if e.MMAutoRelax != nil {
		p["mm.autoRelax"] = *e.MMAutoRelax
	}
	if e.Boost != "" {
		p["boost"] = e.Boost
	}
	if e.LowercaseOps != nil {
		p["lowercaseOperators"] = *e.LowercaseOps
	}
	if e.PF2 != "" {
		p["pf2"] = e.PF2
	}
	if e.PS2 != nil {
		p["ps2"] = *e.PS2
	}
	if e.PF3 != "" {
		p["pf3"] = e.PF3
	}
	if e.PS3 != nil {
		p["ps3"] = *e.PS3
	}
	if e.StopWords != nil {
		p["stopwords"] = *e.StopWords
	}
	if e.UF != "" {
		p["uf"] = e.UF
	}
}
