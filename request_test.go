package solr_test

import (
	"context"
	"errors"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	solr "github.com/sendgrid/go-solr/v2"
)

var _ = Describe("Request execution", func() {
	ctx := context.Background()
	var status int
	var body string
	var fake *fakeSolr

	BeforeEach(func() {
		status, body = http.StatusOK, `{"responseHeader":{"status":0,"QTime":1}}`
		fake = newFakeSolr(func(w http.ResponseWriter, r *http.Request, _ []byte) {
			writeJSON(w, status, body)
		})
	})

	AfterEach(func() {
		fake.Close()
	})

	It("decodes the response header", func() {
		resp, err := solr.NewSelectQuery().Execute(ctx, fake.Context(), "colA")
		Expect(err).To(BeNil())
		Expect(resp.Header.Status).To(Equal(0))
		Expect(resp.Header.QTime).To(Equal(1))
		Expect(resp.Response).To(BeNil())
		Expect(resp.Grouped).To(BeNil())
	})

	It("reports 401 as an auth error", func() {
		status, body = http.StatusUnauthorized, `<html>401</html>`
		_, err := solr.NewSelectQuery().Execute(ctx, fake.Context(), "colA")
		Expect(solr.IsAuthError(err)).To(BeTrue())
		var authErr *solr.AuthError
		Expect(errors.As(err, &authErr)).To(BeTrue())
		Expect(authErr.Status).To(Equal(http.StatusUnauthorized))
	})

	It("surfaces the solr error object", func() {
		status = http.StatusBadRequest
		body = `{"responseHeader":{"status":400,"QTime":0},"error":{"metadata":["error-class","org.apache.solr.common.SolrException"],"msg":"undefined field foo","code":400}}`
		_, err := solr.NewSelectQuery().WithQ("foo:bar").Execute(ctx, fake.Context(), "colA")
		var solrErr *solr.SolrResponseError
		Expect(errors.As(err, &solrErr)).To(BeTrue())
		Expect(solrErr.Status).To(Equal(http.StatusBadRequest))
		Expect(solrErr.Msg).To(Equal("undefined field foo"))
		Expect(solrErr.Metadata).To(ContainElement("org.apache.solr.common.SolrException"))
		Expect(err.Error()).To(ContainSubstring("undefined field foo"))
	})

	It("treats an error object in a 200 as a solr error", func() {
		body = `{"responseHeader":{"status":500},"error":{"msg":"boom","trace":"at x","code":500}}`
		_, err := solr.NewSelectQuery().Execute(ctx, fake.Context(), "colA")
		var solrErr *solr.SolrResponseError
		Expect(errors.As(err, &solrErr)).To(BeTrue())
		Expect(solrErr.Status).To(Equal(500))
		Expect(solrErr.Trace).To(Equal("at x"))
	})

	It("keeps a non json error body as the message", func() {
		status, body = http.StatusInternalServerError, "proxy exploded"
		_, err := solr.NewSelectQuery().Execute(ctx, fake.Context(), "colA")
		var solrErr *solr.SolrResponseError
		Expect(errors.As(err, &solrErr)).To(BeTrue())
		Expect(solrErr.Msg).To(Equal("proxy exploded"))
		Expect(solr.IsNotFound(err)).To(BeFalse())
	})

	It("recognizes not found", func() {
		status, body = http.StatusNotFound, `{"error":{"msg":"no such collection","code":404}}`
		_, err := solr.NewSelectQuery().Execute(ctx, fake.Context(), "missing")
		Expect(solr.IsNotFound(err)).To(BeTrue())
	})

	It("reports an undecodable success body", func() {
		body = `{"responseHeader":`
		_, err := solr.NewSelectQuery().Execute(ctx, fake.Context(), "colA")
		var decodeErr *solr.DecodeError
		Expect(errors.As(err, &decodeErr)).To(BeTrue())
	})

	It("reports transport failures", func() {
		s := fake.Context()
		fake.Close()
		_, err := solr.NewSelectQuery().Execute(ctx, s, "colA")
		var transportErr *solr.TransportError
		Expect(errors.As(err, &transportErr)).To(BeTrue())
		Expect(transportErr.URL).To(HavePrefix(fake.URL))
	})

	It("passes resolution failures through", func() {
		s, err := solr.NewServerContext(solr.NewMultiHost(nil, 0))
		Expect(err).To(BeNil())
		_, err = solr.NewSelectQuery().Execute(ctx, s, "colA")
		Expect(err).To(BeIdenticalTo(solr.ErrNoHostSpecified))
	})

	It("requires a resolver", func() {
		_, err := solr.NewServerContext(nil)
		Expect(err).To(BeIdenticalTo(solr.ErrNoHostSpecified))
	})

	It("reports an unreadable certificate as an io error", func() {
		host, err := solr.NewSingleHost(fake.URL)
		Expect(err).To(BeNil())
		_, err = solr.NewServerContext(host, solr.Cert("/nonexistent/ca.pem"))
		var ioErr *solr.IOError
		Expect(errors.As(err, &ioErr)).To(BeTrue())
		Expect(ioErr.Path).To(Equal("/nonexistent/ca.pem"))
	})

	Describe("basic auth", func() {
		It("sends the credential", func() {
			s := fake.Context(solr.Auth(solr.NewBasicAuth("solr", "SolrRocks")))
			_, err := solr.NewSelectQuery().Execute(ctx, s, "colA")
			Expect(err).To(BeNil())
			Expect(fake.Last().Header.Get("Authorization")).To(Equal("Basic c29scjpTb2xyUm9ja3M="))
		})

		It("sends nothing without a provider", func() {
			_, err := solr.NewSelectQuery().Execute(ctx, fake.Context(), "colA")
			Expect(err).To(BeNil())
			Expect(fake.Last().Header.Get("Authorization")).To(BeEmpty())
		})
	})

	Describe("metrics", func() {
		It("records request durations per status", func() {
			reg := prometheus.NewRegistry()
			s := fake.Context(solr.Metrics(reg))
			_, err := solr.NewSelectQuery().Execute(ctx, s, "colA")
			Expect(err).To(BeNil())
			count, err := testutil.GatherAndCount(reg, "solr_client_request_duration_seconds")
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("counts resolution failures", func() {
			reg := prometheus.NewRegistry()
			s, err := solr.NewServerContext(solr.NewMultiHost(nil, 0), solr.Metrics(reg))
			Expect(err).To(BeNil())
			_, _ = solr.NewSelectQuery().Execute(ctx, s, "colA")
			expected := `
# HELP solr_client_host_resolution_failures_total Requests that failed before sending because no node could be resolved.
# TYPE solr_client_host_resolution_failures_total counter
solr_client_host_resolution_failures_total 1
`
			Expect(testutil.GatherAndCompare(reg, strings.NewReader(expected), "solr_client_host_resolution_failures_total")).To(Succeed())
		})

		It("fails to build a context when the registry rejects the collectors", func() {
			reg := prometheus.NewRegistry()
			reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
				Name: "solr_client_request_duration_seconds",
				Help: "Something else with the same name.",
			}))
			host, err := solr.NewSingleHost(fake.URL)
			Expect(err).To(BeNil())
			var s *solr.ServerContext
			Expect(func() {
				s, err = solr.NewServerContext(host, solr.Metrics(reg))
			}).NotTo(Panic())
			Expect(err).To(HaveOccurred())
			Expect(s).To(BeNil())
		})

		It("shares collectors between contexts on one registry", func() {
			reg := prometheus.NewRegistry()
			Expect(func() {
				fake.Context(solr.Metrics(reg))
				fake.Context(solr.Metrics(reg))
			}).NotTo(Panic())
		})
	})
})
