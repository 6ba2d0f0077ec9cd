package cmedparser

import (
	"fmt"
	"sort"
	"time"

	"github.com/medfocus/cmed-api/cmedparser/entities"
	"github.com/medfocus/cmed-api/logging"
)

const sourceName = "ANVISA/CMED - Lista de Preços de Medicamentos"

// ParseSnapshot turns the staged price table at csvPath into a
// complete snapshot. Row-level problems are absorbed inside ParseRows;
// only structural failures surface here. A payload that yields zero
// substances is a structural failure: a header with no usable rows
// means the source changed shape, and an empty snapshot must never
// replace a good one.
func ParseSnapshot(csvPath string, sourceURL string) (*entities.Snapshot, error) {
	rows, err := ParseRows(csvPath)
	if err != nil {
		return nil, err
	}

	medicamentos := BuildMedicamentos(rows)
	if len(medicamentos) == 0 {
		return nil, fmt.Errorf("%w: %d raw rows in %s", ErrEmptyDataset, len(rows), csvPath)
	}

	logging.Info("Price table parsed",
		"rows", len(rows),
		"substancias", len(medicamentos))

	return BuildSnapshot(medicamentos, sourceURL), nil
}

// BuildSnapshot assembles the snapshot metadata and category list for
// an already-classified set of medicamentos.
func BuildSnapshot(medicamentos []entities.Medicamento, sourceURL string) *entities.Snapshot {
	seen := make(map[string]bool)
	categories := []string{}
	comGenericos := 0
	comSimilares := 0

	for i := range medicamentos {
		m := &medicamentos[i]
		if !seen[m.ClasseNome] {
			seen[m.ClasseNome] = true
			categories = append(categories, m.ClasseNome)
		}
		if len(m.Genericos) > 0 {
			comGenericos++
		}
		if len(m.Similares) > 0 {
			comSimilares++
		}
	}
	sort.Strings(categories)

	return &entities.Snapshot{
		Metadata: entities.Metadata{
			Source:            sourceName,
			URL:               sourceURL,
			LastUpdate:        time.Now().Format("2006-01-02"),
			TotalSubstancias:  len(medicamentos),
			TotalWithGenerics: comGenericos,
			TotalWithSimilars: comSimilares,
			TotalCategories:   len(categories),
		},
		Categories:   categories,
		Medicamentos: medicamentos,
	}
}
