package cmedparser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TA_PRECO_MEDICAMENTO.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func dataLine(fields int) string {
	cols := make([]string, fields)
	for i := range cols {
		cols[i] = "x"
	}
	return strings.Join(cols, ";")
}

func TestParseRowsHeaderWithinBound(t *testing.T) {
	path := writeFixture(t, []string{
		"LISTA DE PREÇOS DE MEDICAMENTOS",
		"Atualizada em 01/01/2026",
		"",
		"SUBSTÂNCIA;CNPJ;LABORATÓRIO;CÓDIGO GGREM;REGISTRO;EAN 1",
		dataLine(16),
		dataLine(16),
	})

	rows, err := ParseRows(path)
	if err != nil {
		t.Fatalf("ParseRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(rows))
	}
}

func TestParseRowsHeaderNotFoundWithinBound(t *testing.T) {
	lines := make([]string, 80)
	for i := range lines {
		lines[i] = "preamble noise"
	}
	lines = append(lines, "SUBSTÂNCIA;too late")

	_, err := ParseRows(writeFixture(t, lines))
	if !errors.Is(err, ErrHeaderNotFound) {
		t.Errorf("Expected ErrHeaderNotFound, got %v", err)
	}
}

func TestParseRowsHeaderNotFoundShortFile(t *testing.T) {
	_, err := ParseRows(writeFixture(t, []string{"one", "two", "three"}))
	if !errors.Is(err, ErrHeaderNotFound) {
		t.Errorf("Expected ErrHeaderNotFound, got %v", err)
	}
}

func TestParseRowsSkipsShortAndEmptyRows(t *testing.T) {
	path := writeFixture(t, []string{
		"SUBSTÂNCIA;header",
		dataLine(16),
		"",
		"too;few;fields",
		dataLine(15),
	})

	rows, err := ParseRows(path)
	if err != nil {
		t.Fatalf("ParseRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 rows after skipping malformed ones, got %d", len(rows))
	}
}

func TestParseSnapshotEmptyDataset(t *testing.T) {
	// Header present but no usable rows below it.
	path := writeFixture(t, []string{
		"LISTA DE PREÇOS DE MEDICAMENTOS",
		"SUBSTÂNCIA;CNPJ;LABORATÓRIO",
		"",
		"too;few;fields",
	})

	_, err := ParseSnapshot(path, "http://example.com/tabela.csv")
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("Expected ErrEmptyDataset, got %v", err)
	}
}

func TestParseSnapshotRowsWithoutSubstance(t *testing.T) {
	// Rows can pass the field-count check yet carry no substance name;
	// grouping drops them all and the dataset is still empty.
	blank := strings.Repeat(";", 16)
	path := writeFixture(t, []string{
		"SUBSTÂNCIA;header",
		blank,
		blank,
	})

	_, err := ParseSnapshot(path, "http://example.com/tabela.csv")
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("Expected ErrEmptyDataset, got %v", err)
	}
}

func TestSplitRowQuotedSeparator(t *testing.T) {
	fields := splitRow(`"COMPRIMIDO; REVESTIDO";LAB;10,50`)
	want := []string{"COMPRIMIDO; REVESTIDO", "LAB", "10,50"}

	if len(fields) != len(want) {
		t.Fatalf("Expected %d fields, got %d: %v", len(want), len(fields), fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("Field %d: expected %q, got %q", i, want[i], fields[i])
		}
	}
}

func TestSplitRowTrimsAndKeepsEmptyFields(t *testing.T) {
	fields := splitRow(`a ; ;c;`)
	want := []string{"a", "", "c", ""}

	if len(fields) != len(want) {
		t.Fatalf("Expected %d fields, got %d: %v", len(want), len(fields), fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("Field %d: expected %q, got %q", i, want[i], fields[i])
		}
	}
}

func TestSplitRowUnbalancedQuote(t *testing.T) {
	// The real file contains stray quotes; everything after one is
	// treated as quoted text until the next quote or end of line.
	fields := splitRow(`AB"C;D`)
	if len(fields) != 1 {
		t.Fatalf("Expected 1 field, got %d: %v", len(fields), fields)
	}
	if fields[0] != "ABC;D" {
		t.Errorf("Expected %q, got %q", "ABC;D", fields[0])
	}
}
