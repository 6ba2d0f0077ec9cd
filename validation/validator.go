// Package validation provides input validation for user-supplied query
// text and a post-parse data quality report for the refresh pipeline.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/medfocus/cmed-api/cmedparser/entities"
)

const maxInputLength = 100

// Pre-compiled pattern: alphanumeric + Portuguese accents + safe
// punctuation, the character set actually present in substance and
// product names.
var inputRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+,'%/()áâãàéêíóôõúüçÁÂÃÀÉÊÍÓÔÕÚÜÇ]+$`)

// Substring screens are cheaper than regex for these.
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:", "onerror=", "onload=",
	"eval(", "expression(",
	"' or ", "\" or ", "union select", "drop table", "delete from",
	"insert into", "--", "/*", "*/",
	"../", "..\\", "file://",
	"${", "$(", "`",
}

// ValidateInput validates user-supplied search text. Empty input is
// valid (it matches everything).
func ValidateInput(input string) error {
	if input == "" {
		return nil
	}

	if len(input) > maxInputLength {
		return fmt.Errorf("search term too long: %d characters (max %d)", len(input), maxInputLength)
	}

	lower := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("search term contains invalid sequence")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("search term contains invalid characters")
	}

	return nil
}

// DataQualityReport summarizes issues found in a freshly built
// dataset. None of them abort a refresh; they are logged for follow-up.
type DataQualityReport struct {
	SemPrecoReferencia    int      // reference product has no price
	SemAlternativas       int      // no generics and no similars
	GenericosSemPreco     int      // generic entries without a price
	SubstanciasDuplicadas []string // should never happen after grouping
}

// ReportDataQuality inspects every aggregate and counts quality
// problems.
func ReportDataQuality(medicamentos []entities.Medicamento) *DataQualityReport {
	report := &DataQualityReport{}
	seen := make(map[string]bool, len(medicamentos))

	for i := range medicamentos {
		m := &medicamentos[i]

		key := strings.ToLower(m.Substancia)
		if seen[key] {
			report.SubstanciasDuplicadas = append(report.SubstanciasDuplicadas, m.Substancia)
		}
		seen[key] = true

		if m.Referencia.Preco == nil {
			report.SemPrecoReferencia++
		}
		if len(m.Genericos) == 0 && len(m.Similares) == 0 {
			report.SemAlternativas++
		}
		for j := range m.Genericos {
			if m.Genericos[j].Preco == nil {
				report.GenericosSemPreco++
			}
		}
	}

	return report
}
