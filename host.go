package solr

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultProbeTimeout = 5 * time.Second

// SingleHost always resolves to the same base url.
type SingleHost struct {
	host string
}

func NewSingleHost(host string) (*SingleHost, error) {
	host, err := normalizeHost(host)
	if err != nil {
		return nil, err
	}
	return &SingleHost{host: host}, nil
}

func (s *SingleHost) ResolveHost(ctx context.Context) (string, error) {
	return s.host, nil
}

// MultiHost probes a static list of nodes in random order and resolves to
// the first one that answers within the timeout.
type MultiHost struct {
	hosts   []string
	timeout time.Duration
	client  HTTPer
	logger  Logger
}

func NewMultiHost(hosts []string, timeout time.Duration, opts ...func(*MultiHost)) *MultiHost {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	m := &MultiHost{
		hosts:   make([]string, 0, len(hosts)),
		timeout: timeout,
		logger:  defaultLogger(),
	}
	for _, h := range hosts {
		m.hosts = append(m.hosts, strings.TrimSuffix(strings.TrimSpace(h), "/"))
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.client == nil {
		m.client = sharedClient()
	}
	return m
}

// MultiHostHTTPClient sets the client used for liveness probes.
func MultiHostHTTPClient(cli HTTPer) func(*MultiHost) {
	return func(m *MultiHost) {
		m.client = cli
	}
}

func MultiHostLogger(logger Logger) func(*MultiHost) {
	return func(m *MultiHost) {
		m.logger = logger
	}
}

func (m *MultiHost) ResolveHost(ctx context.Context) (string, error) {
	if len(m.hosts) == 0 {
		return "", ErrNoHostSpecified
	}
	for _, i := range rand.Perm(len(m.hosts)) {
		host := m.hosts[i]
		if err := m.probe(ctx, host); err != nil {
			m.logger.Debug("solr host did not answer", "host", host, "error", err)
			if ctx.Err() != nil {
				return "", NewConnectionError("resolution cancelled", ctx.Err())
			}
			continue
		}
		return host, nil
	}
	return "", ErrNoHostAnswered
}

// probe succeeds on any http answer; auth or status problems surface on the
// real request.
func (m *MultiHost) probe(ctx context.Context, host string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/solr/", nil)
	if err != nil {
		return errors.Wrapf(err, "building probe for %s", host)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func normalizeHost(host string) (string, error) {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	u, err := url.Parse(host)
	if err != nil {
		return "", NewConnectionError(fmt.Sprintf("malformed host %q", host), err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", NewConnectionError(fmt.Sprintf("malformed host %q: expected scheme://host:port", host), nil)
	}
	return host, nil
}
