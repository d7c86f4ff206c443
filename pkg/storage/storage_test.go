package storage_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/rajinweb/contract-esign-sub000/pkg/lifecycle"
	"github.com/rajinweb/contract-esign-sub000/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=esignstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/esignstore;"

func newFilesystem(t *testing.T) (storage.System, string) {
	t.Helper()
	root := t.TempDir()
	sys, err := storage.New(&storage.Config{Backend: storage.BackendFilesystem, Root: root}, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return sys, root
}

func TestNewAzureReturnsSystem(t *testing.T) {
	cfg := &storage.Config{
		Backend:          storage.BackendAzure,
		ContainerName:    "documents",
		ConnectionString: azuriteConnString,
	}

	sys, err := storage.New(cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sys == nil {
		t.Fatal("New() returned nil system")
	}
}

func TestNewAzureInvalidConnectionString(t *testing.T) {
	cfg := &storage.Config{
		Backend:          storage.BackendAzure,
		ContainerName:    "documents",
		ConnectionString: "not-a-connection-string",
	}

	_, err := storage.New(cfg, slog.Default())
	if err == nil {
		t.Fatal("expected error for invalid connection string, got nil")
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := storage.New(&storage.Config{Backend: "tape"}, slog.Default())
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestFilesystemRoundTrip(t *testing.T) {
	sys, root := newFilesystem(t)
	ctx := context.Background()
	data := []byte("%PDF-1.7 test")

	if err := sys.Upload(ctx, "owner-1/contract.pdf", bytes.NewReader(data), "application/pdf"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	ok, err := sys.Exists(ctx, "owner-1/contract.pdf")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v; want true, nil", ok, err)
	}

	got, err := storage.ReadAll(ctx, sys, "owner-1/contract.pdf")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("ReadAll() = %q, want %q", got, data)
	}

	onDisk, err := os.ReadFile(filepath.Join(root, "owner-1", "contract.pdf"))
	if err != nil {
		t.Fatalf("file not written under root: %v", err)
	}
	if !bytes.Equal(onDisk, data) {
		t.Errorf("on-disk content = %q, want %q", onDisk, data)
	}

	entries, err := os.ReadDir(filepath.Join(root, "owner-1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestFilesystemOverwrite(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	for _, content := range []string{"first", "second"} {
		if err := sys.Upload(ctx, "a/b.pdf", bytes.NewReader([]byte(content)), "application/pdf"); err != nil {
			t.Fatalf("Upload(%s) error = %v", content, err)
		}
	}

	got, err := storage.ReadAll(ctx, sys, "a/b.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want second", got)
	}
}

func TestFilesystemMissing(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	ok, err := sys.Exists(ctx, "nobody/none.pdf")
	if err != nil || ok {
		t.Errorf("Exists() = %v, %v; want false, nil", ok, err)
	}

	if _, err := sys.Download(ctx, "nobody/none.pdf"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}

	if err := sys.Delete(ctx, "nobody/none.pdf"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestFilesystemDelete(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	if err := sys.Upload(ctx, "x.pdf", bytes.NewReader([]byte("x")), "application/pdf"); err != nil {
		t.Fatal(err)
	}
	if err := sys.Delete(ctx, "x.pdf"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := sys.Exists(ctx, "x.pdf"); ok {
		t.Error("blob still exists after delete")
	}
}

func TestFilesystemStart(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "root")
	sys, err := storage.New(&storage.Config{Backend: storage.BackendFilesystem, Root: root}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}

func TestKeyValidation(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	tests := []struct {
		key  string
		want error
	}{
		{"", storage.ErrEmptyKey},
		{"../escape.pdf", storage.ErrInvalidKey},
		{"owner/../../escape.pdf", storage.ErrInvalidKey},
		{"/etc/passwd", storage.ErrInvalidKey},
		{`owner\file.pdf`, storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("key=%q", tt.key), func(t *testing.T) {
			if _, err := sys.Exists(ctx, tt.key); !errors.Is(err, tt.want) {
				t.Errorf("Exists() error = %v, want %v", err, tt.want)
			}
			if err := sys.Upload(ctx, tt.key, bytes.NewReader(nil), "application/pdf"); !errors.Is(err, tt.want) {
				t.Errorf("Upload() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", storage.ErrNotFound, http.StatusNotFound},
		{"empty key", storage.ErrEmptyKey, http.StatusBadRequest},
		{"invalid key", storage.ErrInvalidKey, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("wrap: %w", storage.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
