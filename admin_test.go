package solr_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	solr "github.com/sendgrid/go-solr/v2"
)

var _ = Describe("Admin operations", func() {
	ctx := context.Background()
	var fake *fakeSolr
	var body string

	BeforeEach(func() {
		body = `{"responseHeader":{"status":0}}`
		fake = newFakeSolr(func(w http.ResponseWriter, r *http.Request, _ []byte) {
			writeJSON(w, http.StatusOK, body)
		})
	})

	AfterEach(func() {
		fake.Close()
	})

	Describe("collections", func() {
		It("creates a collection", func() {
			_, err := solr.CreateCollection(ctx, fake.Context(), "colA", "cfgA", 1, 1)
			Expect(err).To(BeNil())
			req := fake.Last()
			Expect(req.Method).To(Equal(http.MethodGet))
			Expect(req.Path).To(Equal("/solr/admin/collections"))
			Expect(req.Query["action"]).To(Equal([]string{"CREATE"}))
			Expect(req.Query["name"]).To(Equal([]string{"colA"}))
			Expect(req.Query["collection.configName"]).To(Equal([]string{"cfgA"}))
			Expect(req.Query["numShards"]).To(Equal([]string{"1"}))
			Expect(req.Query["replicationFactor"]).To(Equal([]string{"1"}))
			Expect(req.Query["wt"]).To(Equal([]string{"json"}))
		})

		It("lists and checks collections", func() {
			body = `{"responseHeader":{"status":0},"collections":["colA","colB"]}`
			collections, err := solr.GetCollections(ctx, fake.Context())
			Expect(err).To(BeNil())
			Expect(collections).To(Equal([]string{"colA", "colB"}))
			Expect(fake.Last().Query["action"]).To(Equal([]string{"LIST"}))

			exists, err := solr.CollectionExists(ctx, fake.Context(), "colB")
			Expect(err).To(BeNil())
			Expect(exists).To(BeTrue())
			exists, err = solr.CollectionExists(ctx, fake.Context(), "colC")
			Expect(err).To(BeNil())
			Expect(exists).To(BeFalse())
		})

		It("deletes a collection", func() {
			_, err := solr.DeleteCollection(ctx, fake.Context(), "colA")
			Expect(err).To(BeNil())
			Expect(fake.Last().Query["action"]).To(Equal([]string{"DELETE"}))
			Expect(fake.Last().Query["name"]).To(Equal([]string{"colA"}))
		})
	})

	Describe("aliases", func() {
		It("creates an alias over several collections", func() {
			_, err := solr.CreateAlias(ctx, fake.Context(), "all", []string{"colA", "colB"})
			Expect(err).To(BeNil())
			Expect(fake.Last().Query["action"]).To(Equal([]string{"CREATEALIAS"}))
			Expect(fake.Last().Query["collections"]).To(Equal([]string{"colA,colB"}))
		})

		It("splits the listed aliases", func() {
			body = `{"responseHeader":{"status":0},"aliases":{"all":"colA,colB","one":"colA"}}`
			aliases, err := solr.GetAliases(ctx, fake.Context())
			Expect(err).To(BeNil())
			Expect(aliases).To(Equal(map[string][]string{"all": {"colA", "colB"}, "one": {"colA"}}))
			Expect(fake.Last().Query["action"]).To(Equal([]string{"LISTALIASES"}))

			exists, err := solr.AliasExists(ctx, fake.Context(), "one")
			Expect(err).To(BeNil())
			Expect(exists).To(BeTrue())
		})

		It("deletes an alias", func() {
			_, err := solr.DeleteAlias(ctx, fake.Context(), "all")
			Expect(err).To(BeNil())
			Expect(fake.Last().Query["action"]).To(Equal([]string{"DELETEALIAS"}))
		})
	})

	Describe("configs", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "cfgA")
			Expect(err).To(BeNil())
			Expect(os.WriteFile(filepath.Join(dir, "solrconfig.xml"), []byte("<config/>"), 0o644)).To(Succeed())
			Expect(os.MkdirAll(filepath.Join(dir, "lang"), 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "lang", "stopwords.txt"), []byte("a\nthe\n"), 0o644)).To(Succeed())
		})

		AfterEach(func() {
			os.RemoveAll(dir)
		})

		It("uploads a directory as a stored zip", func() {
			_, err := solr.UploadConfig(ctx, fake.Context(), "cfgA", dir)
			Expect(err).To(BeNil())
			req := fake.Last()
			Expect(req.Method).To(Equal(http.MethodPost))
			Expect(req.Path).To(Equal("/solr/admin/configs"))
			Expect(req.Query["action"]).To(Equal([]string{"UPLOAD"}))
			Expect(req.Query["name"]).To(Equal([]string{"cfgA"}))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/octet-stream"))

			zr, err := zip.NewReader(bytes.NewReader(req.Body), int64(len(req.Body)))
			Expect(err).To(BeNil())
			var names []string
			for _, f := range zr.File {
				Expect(f.Method).To(Equal(zip.Store))
				names = append(names, f.Name)
			}
			sort.Strings(names)
			Expect(names).To(Equal([]string{"lang/stopwords.txt", "solrconfig.xml"}))

			rc, err := zr.File[len(zr.File)-1].Open()
			Expect(err).To(BeNil())
			defer rc.Close()
			content, err := io.ReadAll(rc)
			Expect(err).To(BeNil())
			Expect(content).NotTo(BeEmpty())
		})

		It("uploads a single file as is", func() {
			file := filepath.Join(dir, "solrconfig.xml")
			_, err := solr.UploadConfig(ctx, fake.Context(), "cfgA", file)
			Expect(err).To(BeNil())
			Expect(string(fake.Last().Body)).To(Equal("<config/>"))
		})

		It("reports a missing path as an io error", func() {
			_, err := solr.UploadConfig(ctx, fake.Context(), "cfgA", filepath.Join(dir, "nope"))
			var ioErr *solr.IOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(fake.Requests()).To(BeEmpty())
		})

		It("lists, checks and deletes configs", func() {
			body = `{"responseHeader":{"status":0},"configSets":["_default","cfgA"]}`
			configs, err := solr.GetConfigs(ctx, fake.Context())
			Expect(err).To(BeNil())
			Expect(configs).To(ConsistOf("_default", "cfgA"))
			exists, err := solr.ConfigExists(ctx, fake.Context(), "cfgA")
			Expect(err).To(BeNil())
			Expect(exists).To(BeTrue())

			_, err = solr.DeleteConfig(ctx, fake.Context(), "cfgA")
			Expect(err).To(BeNil())
			Expect(fake.Last().Query["action"]).To(Equal([]string{"DELETE"}))
			Expect(fake.Last().Path).To(Equal("/solr/admin/configs"))
		})
	})
})
