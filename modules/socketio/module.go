package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Emit connects to a socket.io server, emits one event and, when on_event
// is set, waits for that event and publishes its payload. The stopper is
// watched while waiting.
type Emit struct {
	block.Base
}

// NewEmit creates an Emit block.
func NewEmit(id string) *Emit {
	e := &Emit{Base: block.NewBase("socketio.emit", id, block.WithDoc("Emit a socket.io event and wait for a reply."))}
	e.DeclareInput("url", cty.String, param.WithDoc("Server URL including the socket.io path."))
	e.DeclareInput("namespace", cty.String, param.WithDefault(cty.StringVal("/")), param.WithDoc("Namespace to join."))
	e.DeclareInput("emit_event", cty.String, param.WithDoc("Event to emit once connected."))
	e.DeclareInput("emit_data", cty.DynamicPseudoType, param.WithDoc("Event payload."))
	e.DeclareInput("on_event", cty.String, param.WithDefault(cty.StringVal("")), param.WithDoc("Reply event to wait for; empty means do not wait."))
	e.DeclareInput("timeout", cty.String, param.WithDefault(cty.StringVal("10s")), param.WithDoc("Connect and reply timeout."))
	e.DeclareInput("insecure_skip_verify", cty.Bool, param.WithDefault(cty.False), param.WithDoc("Skip TLS verification."))
	e.DeclareOutput("response_data", cty.DynamicPseudoType, param.WithDoc("Payload of the reply event."))
	return e
}

type input struct {
	URL                string
	Namespace          string
	EmitEvent          string
	OnEvent            string
	Timeout            time.Duration
	InsecureSkipVerify bool
	EmitData           any
}

func (e *Emit) input() (*input, error) {
	var in input
	var err error
	if in.URL, err = param.As[string](e.In("url")); err != nil {
		return nil, err
	}
	if in.Namespace, err = param.As[string](e.In("namespace")); err != nil {
		return nil, err
	}
	if in.EmitEvent, err = param.As[string](e.In("emit_event")); err != nil {
		return nil, err
	}
	if in.OnEvent, err = param.As[string](e.In("on_event")); err != nil {
		return nil, err
	}
	if in.InsecureSkipVerify, err = param.As[bool](e.In("insecure_skip_verify")); err != nil {
		return nil, err
	}
	raw, err := param.As[string](e.In("timeout"))
	if err != nil {
		return nil, err
	}
	if in.Timeout, err = time.ParseDuration(raw); err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", raw, err)
	}
	if in.EmitData, err = param.ToGo(e.In("emit_data").Value()); err != nil {
		return nil, fmt.Errorf("emit_data: %w", err)
	}
	return &in, nil
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value cty.Value
	err   error
}

func (e *Emit) Execute(ctx context.Context, s *stopper.Stopper) error {
	in, err := e.input()
	if err != nil {
		return err
	}
	if s.IsStopped() {
		return stopper.ErrStopped
	}

	logger := ctxlog.FromContext(ctx).With("block", e.ID(), "url", in.URL, "emitEvent", in.EmitEvent, "onEvent", in.OnEvent)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	parsedURL, err := url.Parse(in.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("URL %q must include a scheme and host", in.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if in.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	report := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(in.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	if in.OnEvent != "" {
		io.Once(types.EventName(in.OnEvent), func(data ...any) {
			var v cty.Value
			var err error
			if len(data) > 0 {
				v, err = param.FromGo(data[0])
			} else {
				v = cty.NullVal(cty.DynamicPseudoType)
			}
			report(opResult{value: v, err: err})
		})
	}

	io.Once(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", in.Namespace, "sid", io.Id())
		jsonData, _ := json.Marshal(in.EmitData)
		logger.Info("Emitting event", "event", in.EmitEvent, "data", string(jsonData))
		io.Emit(in.EmitEvent, in.EmitData)
		if in.OnEvent == "" {
			report(opResult{value: cty.NullVal(cty.DynamicPseudoType)})
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if cause, ok := errs[0].(error); ok {
				err = cause
			}
		}
		report(opResult{err: fmt.Errorf("socket.io connection failed: %w", err)})
	})

	logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case <-s.Done():
		logger.Info("🛑 Socket.io wait stopped.")
		return stopper.ErrStopped
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isConnected.Load() {
			return fmt.Errorf("timed out after connecting while waiting for event '%s'", in.OnEvent)
		}
		return fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		return e.Out("response_data").Set(res.value)
	}
}

// Register registers the block with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBlock("socketio", "socketio.emit", "Emit a socket.io event and wait for a reply.", func(id string) (block.Block, error) {
		return NewEmit(id), nil
	})
}
