package s3

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// httpClient is a shared client for all uploads to reuse TCP connections.
var httpClient = &http.Client{}

// Upload sends a local file to a pre-signed URL with a PUT request.
type Upload struct {
	block.Base
	// Client overrides the shared client; tests use it.
	Client *http.Client
}

// NewUpload creates an Upload block.
func NewUpload(id string) *Upload {
	u := &Upload{Base: block.NewBase("s3.upload", id, block.WithDoc("Upload a file to a pre-signed URL."))}
	u.DeclareInput("source_path", cty.String, param.WithDoc("Local file to upload."))
	u.DeclareInput("upload_url", cty.String, param.WithDoc("Pre-signed PUT URL."))
	u.DeclareOutput("success", cty.Bool, param.WithDoc("Whether the upload was accepted."))
	u.DeclareOutput("status", cty.String, param.WithDoc("HTTP status of the upload."))
	return u
}

func (u *Upload) Execute(ctx context.Context, s *stopper.Stopper) error {
	sourcePath, err := param.As[string](u.In("source_path"))
	if err != nil {
		return err
	}
	uploadURL, err := param.As[string](u.In("upload_url"))
	if err != nil {
		return err
	}
	if s.IsStopped() {
		return stopper.ErrStopped
	}

	logger := ctxlog.FromContext(ctx).With("block", u.ID(), "action", "upload")

	file, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file '%s': %w", sourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file stats for '%s': %w", sourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return fmt.Errorf("failed to create S3 upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(sourcePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file to S3", "source", sourcePath, "size", stat.Size(), "contentType", contentType)

	client := u.Client
	if client == nil {
		client = httpClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute S3 upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("S3 upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded file", "status", resp.Status)

	if err := u.Out("status").Set(cty.StringVal(resp.Status)); err != nil {
		return err
	}
	return u.Out("success").Set(cty.True)
}

// Register registers the block with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBlock("s3", "s3.upload", "Upload a file to a pre-signed URL.", func(id string) (block.Block, error) {
		return NewUpload(id), nil
	})
}
