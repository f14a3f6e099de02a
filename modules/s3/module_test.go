package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestUpload(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	u := NewUpload("up")
	require.NoError(t, u.In("source_path").Set(cty.StringVal(writeFile(t, "report.json", `{"ok":true}`))))
	require.NoError(t, u.In("upload_url").Set(cty.StringVal(srv.URL+"/bucket/report.json?sig=abc")))

	require.NoError(t, u.Execute(context.Background(), stopper.New()))
	assert.Equal(t, `{"ok":true}`, gotBody)
	assert.Equal(t, "application/json", gotType)
	assert.True(t, u.Out("success").Value().True())
	assert.Equal(t, "200 OK", u.Out("status").Value().AsString())
}

func TestUpload_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	u := NewUpload("up")
	require.NoError(t, u.In("source_path").Set(cty.StringVal(writeFile(t, "blob", "x"))))
	require.NoError(t, u.In("upload_url").Set(cty.StringVal(srv.URL)))

	err := u.Execute(context.Background(), stopper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.True(t, u.Out("success").Value().IsNull())
}

func TestUpload_MissingFileAndStopped(t *testing.T) {
	u := NewUpload("up")
	require.NoError(t, u.In("source_path").Set(cty.StringVal(filepath.Join(t.TempDir(), "missing"))))
	require.NoError(t, u.In("upload_url").Set(cty.StringVal("http://127.0.0.1:1")))

	err := u.Execute(context.Background(), stopper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open source file")

	s := stopper.New()
	s.Stop()
	require.ErrorIs(t, u.Execute(context.Background(), s), stopper.ErrStopped)
}
