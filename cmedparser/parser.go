package cmedparser

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/medfocus/cmed-api/logging"
)

const (
	// The header row starts with the substance column label. It is not
	// the first line of the file; ANVISA prepends a preamble of
	// variable length, known to stay under headerScanLimit lines.
	headerPrefix    = "SUBST"
	headerScanLimit = 70

	// Rows with fewer fields are incomplete and skipped.
	minFields = 15

	fieldSeparator = ';'
	quoteChar      = '"'
)

// ParseRows reads the staged price table, locates the header row and
// tokenizes every line after it. Malformed rows are counted and
// skipped, never fatal; a missing header aborts the whole run with
// ErrHeaderNotFound.
func ParseRows(path string) ([][]string, error) {
	csvFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := csvFile.Close(); err != nil {
			logging.Warn("Failed to close price table file", "error", err)
		}
	}()

	scanner := bufio.NewScanner(csvFile)
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	headerFound := false
	prefixLines := 0
	lineCount := 0
	skippedEmptyLines := 0
	skippedShortRows := 0

	var rows [][]string

	for scanner.Scan() {
		line := scanner.Text()

		if !headerFound {
			prefixLines++
			if strings.HasPrefix(line, headerPrefix) {
				headerFound = true
				continue
			}
			if prefixLines >= headerScanLimit {
				return nil, fmt.Errorf("%w: no line starting with %q in the first %d lines",
					ErrHeaderNotFound, headerPrefix, headerScanLimit)
			}
			continue
		}

		lineCount++
		line = strings.TrimSpace(line)
		if line == "" {
			skippedEmptyLines++
			continue
		}

		fields := splitRow(line)
		if len(fields) < minFields {
			skippedShortRows++
			continue
		}

		rows = append(rows, fields)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error in %s: %w", path, err)
	}

	if !headerFound {
		return nil, fmt.Errorf("%w: file ended after %d lines", ErrHeaderNotFound, prefixLines)
	}

	if skippedEmptyLines > 0 || skippedShortRows > 0 {
		logging.Info("Price table skip statistics",
			"empty_lines", skippedEmptyLines,
			"short_rows", skippedShortRows,
			"total_lines", lineCount,
			"rows_parsed", len(rows))
	}

	return rows, nil
}

// splitRow tokenizes one semicolon-separated line. A quote toggles an
// in-quotes state that suppresses separator recognition; the quote
// characters themselves are dropped. The real file contains stray
// unbalanced quotes, which is why encoding/csv cannot be used here.
func splitRow(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == quoteChar:
			inQuotes = !inQuotes
		case ch == fieldSeparator && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}
