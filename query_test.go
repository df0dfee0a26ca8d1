package solr_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	solr "github.com/sendgrid/go-solr/v2"
)

var _ = Describe("Queries", func() {
	ctx := context.Background()
	var fake *fakeSolr

	BeforeEach(func() {
		fake = newFakeSolr(okResponse)
	})

	AfterEach(func() {
		fake.Close()
	})

	Describe("select", func() {
		It("posts the defaults wrapped in params", func() {
			_, err := solr.NewSelectQuery().Execute(ctx, fake.Context(), "colA")
			Expect(err).To(BeNil())
			req := fake.Last()
			Expect(req.Method).To(Equal(http.MethodPost))
			Expect(req.Path).To(Equal("/solr/colA/select"))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/json"))
			params := selectParams(req.Body)
			Expect(params).To(HaveKeyWithValue("q", "*:*"))
			Expect(params).To(HaveKeyWithValue("rows", BeNumerically("==", 10)))
			Expect(params).To(HaveKeyWithValue("start", BeNumerically("==", 0)))
			Expect(params).NotTo(HaveKey("cursorMark"))
		})

		It("renders filters, fields and sort", func() {
			q := solr.NewSelectQuery().
				WithHandler("query").
				WithQ("title:solr").
				WithFQ("type:book", "inStock:true").
				WithFL("id", "title").
				WithSort("score desc", "id asc").
				WithRows(5).
				WithStart(10).
				WithParam("_route_", "shard1!")
			_, err := q.Execute(ctx, fake.Context(), "colA")
			Expect(err).To(BeNil())
			Expect(fake.Last().Path).To(Equal("/solr/colA/query"))
			params := selectParams(fake.Last().Body)
			Expect(params["fq"]).To(Equal([]interface{}{"type:book", "inStock:true"}))
			Expect(params["fl"]).To(Equal("id,title"))
			Expect(params["sort"]).To(Equal("score desc,id asc"))
			Expect(params["_route_"]).To(Equal("shard1!"))
		})

		It("renders grouping, facets and stats", func() {
			q := solr.NewSelectQuery().
				WithDefType(solr.Edismax(solr.EdismaxQuery{DismaxQuery: solr.DismaxQuery{QF: "title^2 body"}})).
				WithGrouping(solr.NewGroupingComponent().WithFields("cat").WithLimit(3).WithNGroups(true).WithTruncate(true)).
				WithFacetSet(solr.NewFacetSetComponent().
					WithQueries("price:[0 TO 10]").
					WithFields(solr.NewFieldFacetComponent(solr.NewFieldFacetEntry("cat")).WithMinCount(1)).
					WithPivots(solr.NewPivotFacetComponent("cat,inStock"))).
				WithJSONFacet(solr.NewJSONFacetComponent().WithFacet("avg_price", solr.JSONStat("avg(price)"))).
				WithStats(solr.NewStatsComponent("price"))
			_, err := q.Execute(ctx, fake.Context(), "colA")
			Expect(err).To(BeNil())
			params := selectParams(fake.Last().Body)
			Expect(params).To(HaveKeyWithValue("defType", "edismax"))
			Expect(params).To(HaveKeyWithValue("qf", "title^2 body"))
			Expect(params).To(HaveKeyWithValue("group", true))
			Expect(params["group.field"]).To(Equal([]interface{}{"cat"}))
			Expect(params).To(HaveKeyWithValue("group.limit", BeNumerically("==", 3)))
			Expect(params).To(HaveKeyWithValue("group.ngroups", true))
			Expect(params).To(HaveKeyWithValue("group.truncate", true))
			Expect(params).To(HaveKeyWithValue("facet", true))
			Expect(params["facet.query"]).To(Equal([]interface{}{"price:[0 TO 10]"}))
			Expect(params["facet.field"]).To(Equal([]interface{}{"cat"}))
			Expect(params).To(HaveKeyWithValue("facet.mincount", BeNumerically("==", 1)))
			Expect(params["facet.pivot"]).To(Equal([]interface{}{"cat,inStock"}))
			Expect(params).To(HaveKeyWithValue("json.facet", `{"avg_price":"avg(price)"}`))
			Expect(params).To(HaveKeyWithValue("stats", true))
			Expect(params["stats.field"]).To(Equal([]interface{}{"price"}))
		})

		It("does not share slices between copies", func() {
			base := solr.NewSelectQuery().WithFQ("a:1")
			left := base.WithFQ("b:2")
			right := base.WithFQ("c:3")
			Expect(base.FQ).To(Equal([]string{"a:1"}))
			Expect(left.FQ).To(Equal([]string{"a:1", "b:2"}))
			Expect(right.FQ).To(Equal([]string{"a:1", "c:3"}))
		})
	})

	Describe("cursor pagination", func() {
		It("walks every page once and stops when the mark repeats", func() {
			ids := []string{"doc1", "doc2", "doc3"}
			paged := newFakeSolr(func(w http.ResponseWriter, r *http.Request, body []byte) {
				mark, _ := selectParams(body)["cursorMark"].(string)
				page := 0
				if mark != solr.CursorMarkStart {
					_, _ = fmt.Sscanf(mark, "mark%d", &page)
				}
				docs := "[]"
				next := mark
				if page < len(ids) {
					docs = fmt.Sprintf(`[{"id":%q}]`, ids[page])
					next = fmt.Sprintf("mark%d", page+1)
				}
				writeJSON(w, http.StatusOK, fmt.Sprintf(
					`{"responseHeader":{"status":0},"response":{"numFound":3,"start":0,"docs":%s},"nextCursorMark":%q}`, docs, next))
			})
			defer paged.Close()
			s := paged.Context()

			q := solr.NewSelectQuery().WithRows(1).WithSort("id asc").WithCursorMark(solr.CursorMarkStart)
			var seen []string
			advances := 0
			for {
				resp, err := q.Execute(ctx, s, "colA")
				Expect(err).To(BeNil())
				docs, err := solr.Docs[map[string]interface{}](resp.Response)
				Expect(err).To(BeNil())
				for _, doc := range docs {
					seen = append(seen, solr.GetDocIdFromDoc(doc))
				}
				next, ok := q.NextCursor(resp)
				if !ok {
					break
				}
				advances++
				q = next
			}
			Expect(advances).To(Equal(3))
			Expect(seen).To(Equal(ids))
			Expect(paged.Requests()).To(HaveLen(4))
		})

		It("does not advance without a cursor", func() {
			mark := "abc"
			_, ok := solr.NewSelectQuery().NextCursor(&solr.SolrResponse{NextCursorMark: &mark})
			Expect(ok).To(BeFalse())
		})
	})

	Describe("update", func() {
		It("posts the documents with a hard commit", func() {
			docs := []map[string]interface{}{{"id": "doc1"}, {"id": "doc2"}}
			_, err := solr.NewUpdateQuery().Execute(ctx, fake.Context(), "colA", docs)
			Expect(err).To(BeNil())
			req := fake.Last()
			Expect(req.Path).To(Equal("/solr/colA/update"))
			Expect(req.Query["overwrite"]).To(Equal([]string{"true"}))
			Expect(req.Query["wt"]).To(Equal([]string{"json"}))
			Expect(req.Query["commit"]).To(Equal([]string{"true"}))
			Expect(req.Query).NotTo(HaveKey("softCommit"))
			var sent []map[string]interface{}
			Expect(json.Unmarshal(req.Body, &sent)).To(Succeed())
			Expect(sent).To(HaveLen(2))
		})

		It("sends softCommit for a soft commit", func() {
			_, err := solr.NewUpdateQuery().WithCommit(solr.CommitSoft).Execute(ctx, fake.Context(), "colA", []string{})
			Expect(err).To(BeNil())
			Expect(fake.Last().Query["softCommit"]).To(Equal([]string{"true"}))
			Expect(fake.Last().Query).NotTo(HaveKey("commit"))
		})

		It("refuses a payload that is not an array", func() {
			_, err := solr.NewUpdateQuery().Execute(ctx, fake.Context(), "colA", map[string]interface{}{"id": "doc1"})
			Expect(err).To(BeIdenticalTo(solr.ErrNotAnArray))
			Expect(fake.Requests()).To(BeEmpty())
		})
	})

	Describe("delete", func() {
		It("renders ids and queries as xml", func() {
			q := solr.NewDeleteQuery().WithIDs("doc1", "a<b").WithQueries("type:tmp")
			_, err := q.Execute(ctx, fake.Context(), "colA")
			Expect(err).To(BeNil())
			req := fake.Last()
			Expect(req.Path).To(Equal("/solr/colA/update"))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/xml"))
			Expect(req.Query["commit"]).To(Equal([]string{"true"}))
			Expect(string(req.Body)).To(Equal("<delete><id>doc1</id><id>a&lt;b</id><query>type:tmp</query></delete>"))
		})

		It("needs something to delete", func() {
			_, err := solr.NewDeleteQuery().Execute(ctx, fake.Context(), "colA")
			Expect(err).To(BeIdenticalTo(solr.ErrNothingToDelete))
			Expect(fake.Requests()).To(BeEmpty())
		})
	})
})
