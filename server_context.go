package solr

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultReadTimeoutSeconds    = 20
	defaultConnectTimeoutSeconds = 5
)

var (
	sharedClientOnce sync.Once
	sharedHTTPClient *http.Client
)

// sharedClient is the process wide pooled client used by every resolver and
// context that was not given its own. It lives until the process exits.
func sharedClient() *http.Client {
	sharedClientOnce.Do(func() {
		sharedHTTPClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 10,
				DialContext:         (&net.Dialer{Timeout: defaultConnectTimeoutSeconds * time.Second}).DialContext,
			},
		}
	})
	return sharedHTTPClient
}

// ServerContext bundles everything needed to talk to a cluster. It is
// read-only once built and safe for concurrent use.
type ServerContext struct {
	host                  HostResolver
	auth                  SolrAuth
	client                HTTPer
	logger                Logger
	metrics               *requestMetrics
	registerer            prometheus.Registerer
	cert                  string
	insecureSkipVerify    bool
	readTimeoutSeconds    int
	connectTimeoutSeconds int
}

func NewServerContext(host HostResolver, options ...func(*ServerContext)) (*ServerContext, error) {
	if host == nil {
		return nil, ErrNoHostSpecified
	}
	s := ServerContext{host: host, logger: defaultLogger()}
	for _, opt := range options {
		opt(&s)
	}
	if s.registerer != nil {
		m, err := newRequestMetrics(s.registerer)
		if err != nil {
			return nil, err
		}
		s.metrics = m
	}
	if s.client == nil {
		if s.cert != "" || s.insecureSkipVerify || s.readTimeoutSeconds > 0 || s.connectTimeoutSeconds > 0 {
			var err error
			s.client, err = getClient(s.cert, s.insecureSkipVerify, s.readTimeoutSeconds, s.connectTimeoutSeconds)
			if err != nil {
				return nil, err
			}
		} else {
			s.client = sharedClient()
		}
	}
	return &s, nil
}

func (s *ServerContext) Host() HostResolver {
	return s.host
}

func (s *ServerContext) Logger() Logger {
	return s.logger
}

func getClient(cert string, insecureSkipVerify bool, timeoutSeconds int, connectTimeoutSeconds int) (*http.Client, error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultReadTimeoutSeconds
	}
	if connectTimeoutSeconds <= 0 {
		connectTimeoutSeconds = defaultConnectTimeoutSeconds
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
		DialContext:         (&net.Dialer{Timeout: time.Duration(connectTimeoutSeconds) * time.Second}).DialContext,
	}
	if cert != "" || insecureSkipVerify {
		tlsConfig, err := getTLSConfig(cert, insecureSkipVerify)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsConfig
	}
	return &http.Client{
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
		Transport: transport,
	}, nil
}

func getTLSConfig(certPath string, insecureSkipVerify bool) (*tls.Config, error) {
	tlsConf := &tls.Config{InsecureSkipVerify: insecureSkipVerify}
	if certPath != "" {
		rootPEM, err := os.ReadFile(certPath)
		if err != nil {
			return nil, NewIOError(certPath, err)
		}
		roots := x509.NewCertPool()
		if ok := roots.AppendCertsFromPEM(rootPEM); !ok {
			return nil, NewIOError(certPath, errors.New("failed to parse root certificate"))
		}
		tlsConf.RootCAs = roots
	}
	return tlsConf, nil
}

func Auth(auth SolrAuth) func(*ServerContext) {
	return func(s *ServerContext) {
		s.auth = auth
	}
}

//HTTPClient sets the HTTPer
func HTTPClient(cli HTTPer) func(*ServerContext) {
	return func(s *ServerContext) {
		s.client = cli
	}
}

//The path to tls certificate (optional)
func Cert(cert string) func(*ServerContext) {
	return func(s *ServerContext) {
		s.cert = cert
	}
}

func InsecureSkipVerify(insecureSkipVerify bool) func(*ServerContext) {
	return func(s *ServerContext) {
		s.insecureSkipVerify = insecureSkipVerify
	}
}

func ReadTimeout(seconds int) func(*ServerContext) {
	return func(s *ServerContext) {
		s.readTimeoutSeconds = seconds
	}
}

func ConnectionTimeout(seconds int) func(*ServerContext) {
	return func(s *ServerContext) {
		s.connectTimeoutSeconds = seconds
	}
}

func ContextLogger(logger Logger) func(*ServerContext) {
	return func(s *ServerContext) {
		s.logger = logger
	}
}

// Metrics registers request metrics with reg. Contexts sharing a registry
// share the collectors. NewServerContext fails if reg rejects them.
func Metrics(reg prometheus.Registerer) func(*ServerContext) {
	return func(s *ServerContext) {
		s.registerer = reg
	}
}
