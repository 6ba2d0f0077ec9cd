// Package cmedparser downloads and parses the ANVISA/CMED medicine
// price table into the snapshot served by the API.
package cmedparser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/medfocus/cmed-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// SourceFileName is the staging file the raw download is written to.
const SourceFileName = "TA_PRECO_MEDICAMENTO.csv"

var (
	// ErrFetch marks a network or HTTP failure while downloading the
	// price table.
	ErrFetch = errors.New("cmed: download failed")
	// ErrFetchTimeout marks a download aborted by the overall timeout.
	ErrFetchTimeout = errors.New("cmed: download timed out")
	// ErrHeaderNotFound marks a payload whose header row is missing
	// from the bounded scan prefix.
	ErrHeaderNotFound = errors.New("cmed: header row not found")
	// ErrEmptyDataset marks a payload that parsed to zero substances.
	// Such a payload never replaces a previous snapshot.
	ErrEmptyDataset = errors.New("cmed: no substances parsed")
)

// DownloadFile retrieves the full price table from sourceURL and
// writes it to destPath, overwriting any prior copy. The payload is
// published in ISO-8859-1 on some releases and UTF-8 on others, so the
// bytes are sniffed and decoded before being written.
func DownloadFile(sourceURL string, destPath string, timeout time.Duration) error {
	cleanPath := filepath.Clean(destPath)

	client := &http.Client{
		Timeout: timeout,
	}
	response, err := client.Get(sourceURL)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer func() {
		if err = response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d from %s", ErrFetch, response.StatusCode, sourceURL)
	}

	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
		}
		return fmt.Errorf("%w: reading response body: %v", ErrFetch, err)
	}

	if !utf8.Valid(bodyBytes) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(bodyBytes)
		if err != nil {
			return fmt.Errorf("%w: decoding ISO-8859-1 payload: %v", ErrFetch, err)
		}
		bodyBytes = decoded
	}

	if err := os.WriteFile(cleanPath, bodyBytes, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", cleanPath, err)
	}

	logging.Debug("Price table downloaded", "path", cleanPath, "bytes", len(bodyBytes))
	return nil
}

func isTimeout(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
