package validation

import (
	"strings"
	"testing"

	"github.com/medfocus/cmed-api/cmedparser/entities"
)

func TestValidateInputAccepts(t *testing.T) {
	valid := []string{
		"",
		"dipirona",
		"DIPIRONA SÓDICA",
		"ácido acetilsalicílico",
		"cloreto de sódio 0,9%",
		"paracetamol + codeína",
		"amoxicilina (tri-hidratada)",
	}
	for _, input := range valid {
		if err := ValidateInput(input); err != nil {
			t.Errorf("ValidateInput(%q): unexpected error %v", input, err)
		}
	}
}

func TestValidateInputRejects(t *testing.T) {
	invalid := []string{
		"<script>alert(1)</script>",
		"javascript:alert(1)",
		"x' or 1=1 --",
		"union select * from users",
		"../../../etc/passwd",
		"${jndi:ldap://x}",
		"`id`",
		strings.Repeat("a", 101),
	}
	for _, input := range invalid {
		if err := ValidateInput(input); err == nil {
			t.Errorf("ValidateInput(%q): expected an error", input)
		}
	}
}

func preco(v float64) *float64 {
	return &v
}

func TestReportDataQuality(t *testing.T) {
	medicamentos := []entities.Medicamento{
		{
			Substancia: "DIPIRONA SÓDICA",
			Referencia: entities.Produto{Preco: preco(15.90)},
			Genericos: []entities.Produto{
				{Preco: preco(9.90)},
				{Preco: nil},
			},
		},
		{
			Substancia: "OMEPRAZOL",
			Referencia: entities.Produto{Preco: nil},
		},
		{
			Substancia: "dipirona sódica",
			Referencia: entities.Produto{Preco: preco(12)},
			Similares:  []entities.Produto{{Preco: preco(8)}},
		},
	}

	report := ReportDataQuality(medicamentos)

	if report.SemPrecoReferencia != 1 {
		t.Errorf("Expected 1 unpriced reference, got %d", report.SemPrecoReferencia)
	}
	if report.SemAlternativas != 1 {
		t.Errorf("Expected 1 substance without alternatives, got %d", report.SemAlternativas)
	}
	if report.GenericosSemPreco != 1 {
		t.Errorf("Expected 1 unpriced generic, got %d", report.GenericosSemPreco)
	}
	if len(report.SubstanciasDuplicadas) != 1 || report.SubstanciasDuplicadas[0] != "dipirona sódica" {
		t.Errorf("Expected the case-insensitive duplicate flagged, got %v", report.SubstanciasDuplicadas)
	}
}

func TestReportDataQualityEmpty(t *testing.T) {
	report := ReportDataQuality(nil)
	if report.SemPrecoReferencia != 0 || report.SemAlternativas != 0 ||
		report.GenericosSemPreco != 0 || len(report.SubstanciasDuplicadas) != 0 {
		t.Errorf("Expected a clean report for an empty dataset, got %+v", report)
	}
}
