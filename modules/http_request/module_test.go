package http_request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

func TestRequest_PublishesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	defer srv.Close()

	r := NewRequest("req")
	require.NoError(t, r.In("url").Set(cty.StringVal(srv.URL)))
	require.NoError(t, r.In("method").Set(cty.StringVal(http.MethodPost)))
	require.NoError(t, r.In("headers").Set(cty.MapVal(map[string]cty.Value{"X-Test": cty.StringVal("yes")})))

	require.NoError(t, r.Execute(context.Background(), stopper.New()))

	code, err := param.As[int](r.Out("status_code"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, code)
	body, err := param.As[string](r.Out("body"))
	require.NoError(t, err)
	assert.Equal(t, "created", body)
}

func TestRequest_StopCancelsRequest(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	r := NewRequest("req")
	require.NoError(t, r.In("url").Set(cty.StringVal(srv.URL)))

	s := stopper.New()
	go func() {
		time.Sleep(30 * time.Millisecond)
		s.Stop()
	}()
	err := r.Execute(context.Background(), s)
	require.ErrorIs(t, err, stopper.ErrStopped)
	assert.True(t, r.Out("body").Value().IsNull())
}

func TestRequest_InvalidInputs(t *testing.T) {
	r := NewRequest("req")
	err := r.Execute(context.Background(), stopper.New())
	require.Error(t, err, "url has no value")

	require.NoError(t, r.In("url").Set(cty.StringVal("http://127.0.0.1:1")))
	require.NoError(t, r.In("timeout").Set(cty.StringVal("later")))
	err = r.Execute(context.Background(), stopper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}
