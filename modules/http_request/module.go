package http_request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// transport is shared by every request block to reuse TCP connections.
var transport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Request performs one HTTP request per execution and publishes the status
// code and body. Stopping the graph cancels a request in flight.
type Request struct {
	block.Base
	// Client overrides the shared client; tests use it.
	Client *http.Client
}

// NewRequest creates a Request block.
func NewRequest(id string) *Request {
	r := &Request{Base: block.NewBase("http_request.get", id, block.WithDoc("Make an HTTP request."))}
	r.DeclareInput("url", cty.String, param.WithDoc("Request URL."))
	r.DeclareInput("method", cty.String, param.WithDefault(cty.StringVal(http.MethodGet)), param.WithDoc("HTTP method."))
	r.DeclareInput("headers", cty.Map(cty.String), param.WithDefault(cty.MapValEmpty(cty.String)), param.WithDoc("Request headers."))
	r.DeclareInput("timeout", cty.String, param.WithDefault(cty.StringVal("10s")), param.WithDoc("Whole request timeout."))
	r.DeclareOutput("status_code", cty.Number, param.WithDoc("Response status code."))
	r.DeclareOutput("body", cty.String, param.WithDoc("Response body."))
	return r
}

func (r *Request) Execute(ctx context.Context, s *stopper.Stopper) error {
	url, err := param.As[string](r.In("url"))
	if err != nil {
		return err
	}
	method, err := param.As[string](r.In("method"))
	if err != nil {
		return err
	}
	headers, err := param.As[map[string]string](r.In("headers"))
	if err != nil {
		return err
	}
	rawTimeout, err := param.As[string](r.In("timeout"))
	if err != nil {
		return err
	}
	timeout, err := time.ParseDuration(rawTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", rawTimeout, err)
	}

	logger := ctxlog.FromContext(ctx).With("block", r.ID())
	logger.Info("Making HTTP request", "method", method, "url", url)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go func() {
		select {
		case <-s.Done():
			cancel()
		case <-reqCtx.Done():
		}
	}()

	req, err := http.NewRequestWithContext(reqCtx, method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := r.Client
	if client == nil {
		client = &http.Client{Transport: transport}
	}
	resp, err := client.Do(req)
	if err != nil {
		if s.IsStopped() && errors.Is(err, context.Canceled) {
			return stopper.ErrStopped
		}
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := r.Out("status_code").Set(cty.NumberIntVal(int64(resp.StatusCode))); err != nil {
		return err
	}
	return r.Out("body").Set(cty.StringVal(string(bodyBytes)))
}

// Register registers the block with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBlock("http_request", "http_request.get", "Make an HTTP request.", func(id string) (block.Block, error) {
		return NewRequest(id), nil
	})
}
