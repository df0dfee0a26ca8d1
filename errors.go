package solr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrNoHostSpecified = NewConnectionError("no host specified", nil)
	ErrNoHostAnswered  = NewConnectionError("no host answered", nil)
	ErrNoReadyNodes    = NewConnectionError("no ready nodes", nil)
	ErrNoLeader        = NewConnectionError("no active leader for route", nil)
	ErrNotAnArray      = errors.New("update documents must serialize to a json array")
	ErrNothingToDelete = errors.New("delete needs at least one id or query")
)

// ConnectionError is returned when no node could be resolved.
type ConnectionError struct {
	Reason string
	Err    error
}

func NewConnectionError(reason string, err error) *ConnectionError {
	return &ConnectionError{Reason: reason, Err: err}
}

func (err *ConnectionError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("solr connection error: %s: %v", err.Reason, err.Err)
	}
	return fmt.Sprintf("solr connection error: %s", err.Reason)
}

func (err *ConnectionError) Unwrap() error {
	return err.Err
}

// TransportError wraps failures below HTTP: dns, connect, timeouts.
type TransportError struct {
	URL string
	Err error
}

func NewTransportError(url string, err error) *TransportError {
	return &TransportError{URL: url, Err: err}
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("solr transport error calling %s: %v", err.URL, err.Err)
}

func (err *TransportError) Unwrap() error {
	return err.Err
}

// Timeout reports whether the underlying failure was a timeout.
func (err *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(err.Err, &t) && t.Timeout()
}

type AuthError struct {
	URL    string
	Status int
}

func NewAuthError(url string, status int) *AuthError {
	return &AuthError{URL: url, Status: status}
}

func (err *AuthError) Error() string {
	return fmt.Sprintf("solr authentication failed calling %s: status %d", err.URL, err.Status)
}

// SolrResponseError carries the error Solr reported, either through a non
// success status or an error object in the body.
type SolrResponseError struct {
	Status   int
	Msg      string
	Trace    string
	Metadata []string
	URL      string
}

func NewSolrResponseError(url string, status int, msg string) *SolrResponseError {
	return &SolrResponseError{URL: url, Status: status, Msg: msg}
}

func (err *SolrResponseError) Error() string {
	msg := err.Msg
	if msg == "" {
		msg = http.StatusText(err.Status)
	}
	return fmt.Sprintf("received error response from solr status: %d message: %s", err.Status, msg)
}

// DecodeError is returned when present data does not have the expected shape.
type DecodeError struct {
	Section string
	Err     error
}

func NewDecodeError(section string, err error) *DecodeError {
	return &DecodeError{Section: section, Err: err}
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("solr decode error in %s: %v", err.Section, err.Err)
}

func (err *DecodeError) Unwrap() error {
	return err.Err
}

// IOError reports local file system or archive failures.
type IOError struct {
	Path string
	Err  error
}

func NewIOError(path string, err error) *IOError {
	return &IOError{Path: path, Err: err}
}

func (err *IOError) Error() string {
	return fmt.Sprintf("solr io error for %s: %v", err.Path, err.Err)
}

func (err *IOError) Unwrap() error {
	return err.Err
}

func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func IsNotFound(err error) bool {
	var solrErr *SolrResponseError
	if !errors.As(err, &solrErr) {
		return false
	}
	return solrErr.Status == http.StatusNotFound
}
