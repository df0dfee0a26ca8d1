package solr_test

import (
	"context"
	"fmt"
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	solr "github.com/sendgrid/go-solr/v2"
)

var _ = Describe("Live cluster", func() {
	ctx := context.Background()
	var s *solr.ServerContext
	var configDir string

	BeforeEach(func() {
		host := liveSolrHost()
		configDir = os.Getenv("SOLR_CONFIG_DIR")
		if configDir == "" {
			Skip("SOLR_CONFIG_DIR not set")
		}
		resolver, err := solr.NewSingleHost(host)
		Expect(err).To(BeNil())
		var opts []func(*solr.ServerContext)
		if user := os.Getenv("SOLR_USERNAME"); user != "" {
			opts = append(opts, solr.Auth(solr.NewBasicAuth(user, os.Getenv("SOLR_PASSWORD"))))
		}
		s, err = solr.NewServerContext(resolver, opts...)
		Expect(err).To(BeNil())

		_, err = solr.UploadConfig(ctx, s, "cfgA", configDir)
		Expect(err).To(BeNil())
		_, err = solr.CreateCollection(ctx, s, "colA", "cfgA", 1, 1)
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		if s == nil {
			return
		}
		_, _ = solr.DeleteCollection(ctx, s, "colA")
		_, _ = solr.DeleteConfig(ctx, s, "cfgA")
	})

	It("indexes, finds and deletes a document", func() {
		_, err := solr.NewUpdateQuery().Execute(ctx, s, "colA", []map[string]interface{}{{"id": "doc1"}})
		Expect(err).To(BeNil())

		resp, err := solr.NewSelectQuery().WithFQ("id:doc1").Execute(ctx, s, "colA")
		Expect(err).To(BeNil())
		docs, err := solr.Docs[map[string]interface{}](resp.Response)
		Expect(err).To(BeNil())
		Expect(docs).To(HaveLen(1))
		Expect(solr.GetDocIdFromDoc(docs[0])).To(Equal("doc1"))

		_, err = solr.NewDeleteQuery().WithIDs("doc1").Execute(ctx, s, "colA")
		Expect(err).To(BeNil())
		resp, err = solr.NewSelectQuery().WithFQ("id:doc1").Execute(ctx, s, "colA")
		Expect(err).To(BeNil())
		Expect(resp.Response.NumFound).To(BeEquivalentTo(0))
	})

	It("pages through every document with a cursor", func() {
		docs := make([]map[string]interface{}, 0, 3)
		for i := 1; i <= 3; i++ {
			docs = append(docs, map[string]interface{}{"id": fmt.Sprintf("doc%d", i)})
		}
		_, err := solr.NewUpdateQuery().Execute(ctx, s, "colA", docs)
		Expect(err).To(BeNil())

		q := solr.NewSelectQuery().WithRows(1).WithSort("id asc").WithCursorMark(solr.CursorMarkStart)
		seen := map[string]bool{}
		advances := 0
		for {
			resp, err := q.Execute(ctx, s, "colA")
			Expect(err).To(BeNil())
			page, err := solr.Docs[map[string]interface{}](resp.Response)
			Expect(err).To(BeNil())
			for _, doc := range page {
				id := solr.GetDocIdFromDoc(doc)
				Expect(seen).NotTo(HaveKey(id))
				seen[id] = true
			}
			next, ok := q.NextCursor(resp)
			if !ok {
				break
			}
			advances++
			q = next
		}
		Expect(advances).To(Equal(3))
		Expect(seen).To(HaveLen(3))
	})
})
