// Package rpc provides the XML-RPC transport to the robot control server.
//
// Each call is a single request/response exchange. Protocol faults are
// surfaced as domain errors; everything else (dial failure, timeout,
// malformed response) is a transport error and the only kind the optional
// retry loop will re-issue.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
)

const (
	// DefaultTimeout bounds a single remote call.
	DefaultTimeout = 10 * time.Second

	retryDelay = 500 * time.Millisecond
)

// Caller issues one remote call and decodes the reply into reply.
type Caller interface {
	Call(ctx context.Context, method string, args []any, reply any) error
}

// Client is the XML-RPC implementation of Caller.
type Client struct {
	rpc     *xmlrpc.Client
	timeout time.Duration
	retries int
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how many times a transport-kind failure is re-issued.
// Domain rejections are never retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// NewClient creates a Client for the given endpoint URL, e.g.
// "http://localhost:8081/RPC2".
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	c := &Client{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}

	rc, err := xmlrpc.NewClient(endpoint, newTransport(c.timeout))
	if err != nil {
		return nil, apierr.New(apierr.KindTransport, fmt.Sprintf("creating client for %s", endpoint), err)
	}
	c.rpc = rc
	return c, nil
}

// newTransport derives the HTTP transport from the per-call timeout so the
// configured bound is honored even above the default.
func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
}

// Call issues method with positional args and decodes the response into
// reply. Transport failures are retried up to the configured count; domain
// faults are returned immediately.
func (c *Client) Call(ctx context.Context, method string, args []any, reply any) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		// Each attempt decodes into its own value. An abandoned timed-out
		// attempt can still decode its late response; sharing reply would
		// let that residue leak into the attempt that wins.
		scratch := reply
		if reply != nil {
			scratch = reflect.New(reflect.TypeOf(reply).Elem()).Interface()
		}

		lastErr = c.callOnce(ctx, method, args, scratch)
		if lastErr == nil {
			if reply != nil {
				reflect.ValueOf(reply).Elem().Set(reflect.ValueOf(scratch).Elem())
			}
			return nil
		}
		if !apierr.IsTransport(lastErr) || attempt >= c.retries {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return apierr.New(apierr.KindTransport, fmt.Sprintf("calling %s", method), ctx.Err())
		case <-time.After(retryDelay):
		}
	}
}

func (c *Client) callOnce(ctx context.Context, method string, args []any, reply any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// The underlying client has no context support; the HTTP transport's
	// response timeout keeps the goroutine from outliving the deadline by
	// much.
	done := make(chan error, 1)
	go func() {
		done <- c.rpc.Call(method, args, reply)
	}()

	select {
	case err := <-done:
		return classify(method, err)
	case <-ctx.Done():
		return apierr.New(apierr.KindTransport, fmt.Sprintf("calling %s", method), ctx.Err())
	}
}

// classify maps an XML-RPC client error onto the gateway taxonomy.
func classify(method string, err error) error {
	if err == nil {
		return nil
	}
	var fault xmlrpc.FaultError
	if errors.As(err, &fault) {
		return apierr.New(apierr.KindDomain, fault.String, err)
	}
	return apierr.New(apierr.KindTransport, fmt.Sprintf("calling %s", method), err)
}
