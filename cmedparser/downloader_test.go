package cmedparser

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"
)

func TestDownloadFileWritesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("SUBSTÂNCIA;header\nrow"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), SourceFileName)
	if err := DownloadFile(srv.URL, dest, 5*time.Second); err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}

	raw, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(raw) != "SUBSTÂNCIA;header\nrow" {
		t.Errorf("Unexpected file contents: %q", raw)
	}
}

func TestDownloadFileDecodesLatin1(t *testing.T) {
	// "SÓDICA" with Ó as the single ISO-8859-1 byte 0xD3.
	payload := []byte{'S', 0xD3, 'D', 'I', 'C', 'A'}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), SourceFileName)
	if err := DownloadFile(srv.URL, dest, 5*time.Second); err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}

	raw, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if !utf8.Valid(raw) {
		t.Fatal("Expected a UTF-8 file on disk")
	}
	if string(raw) != "SÓDICA" {
		t.Errorf("Expected decoded text, got %q", raw)
	}
}

func TestDownloadFileHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), SourceFileName)
	err := DownloadFile(srv.URL, dest, 5*time.Second)
	if !errors.Is(err, ErrFetch) {
		t.Errorf("Expected ErrFetch, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("A failed download must not leave a staging file behind")
	}
}

func TestDownloadFileTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), SourceFileName)
	err := DownloadFile(srv.URL, dest, 50*time.Millisecond)
	if !errors.Is(err, ErrFetchTimeout) {
		t.Errorf("Expected ErrFetchTimeout, got %v", err)
	}
}
