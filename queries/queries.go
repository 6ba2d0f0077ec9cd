// Package queries implements the read operations over a snapshot:
// free-text search, filters, sorting, pagination, the savings ranking
// and dataset statistics. Every function is pure; nothing here mutates
// the snapshot.
package queries

import (
	"math"
	"sort"
	"strings"

	"github.com/medfocus/cmed-api/cmedparser/entities"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	DefaultPageSize = 50

	// filtroTodas is the sentinel that disables a filter, kept from
	// the dataset's own vocabulary. An empty value disables too.
	filtroTodas = "Todas"
)

// SearchParams carries every query knob. Zero values mean "no filter",
// first page, default page size, name ascending.
type SearchParams struct {
	Query        string
	Categoria    string
	Tarja        string
	Forma        string
	ComGenericos bool
	SortBy       string // name | price | savings
	SortOrder    string // asc | desc
	Page         int
	PageSize     int
}

// Search applies free-text search and all filters (logical AND), then
// sorts and paginates. Invalid filter values behave as "no filter";
// search never returns an error.
func Search(snap *entities.Snapshot, params SearchParams) ([]entities.Medicamento, entities.Pagination) {
	q := strings.ToLower(strings.TrimSpace(params.Query))

	results := make([]entities.Medicamento, 0, len(snap.Medicamentos))
	for i := range snap.Medicamentos {
		m := &snap.Medicamentos[i]
		if q != "" && !matchesQuery(m, q) {
			continue
		}
		if filterActive(params.Categoria) && m.ClasseNome != params.Categoria {
			continue
		}
		if filterActive(params.Tarja) && !strings.Contains(m.Tarja, params.Tarja) {
			continue
		}
		if filterActive(params.Forma) && m.FormaFarmaceutica != params.Forma {
			continue
		}
		if params.ComGenericos && len(m.Genericos) == 0 {
			continue
		}
		results = append(results, *m)
	}

	sortResults(results, params.SortBy, params.SortOrder)

	return Paginate(results, params.Page, params.PageSize)
}

// matchesQuery checks the case-insensitive substring against the
// substance, reference product and manufacturer, category name, and
// every generic and similar product name.
func matchesQuery(m *entities.Medicamento, q string) bool {
	if strings.Contains(strings.ToLower(m.Substancia), q) ||
		strings.Contains(strings.ToLower(m.Referencia.Nome), q) ||
		strings.Contains(strings.ToLower(m.Referencia.Laboratorio), q) ||
		strings.Contains(strings.ToLower(m.ClasseNome), q) {
		return true
	}
	for i := range m.Genericos {
		if strings.Contains(strings.ToLower(m.Genericos[i].Nome), q) {
			return true
		}
	}
	for i := range m.Similares {
		if strings.Contains(strings.ToLower(m.Similares[i].Nome), q) {
			return true
		}
	}
	return false
}

func filterActive(value string) bool {
	return value != "" && value != filtroTodas
}

// sortResults orders the filtered set with a stable sort. The price
// key compares reference prices with unavailable treated as 0; that is
// an ordering convention, not a data change.
func sortResults(results []entities.Medicamento, sortBy string, sortOrder string) {
	var cmp func(a, b *entities.Medicamento) int

	switch sortBy {
	case "price":
		cmp = func(a, b *entities.Medicamento) int {
			pa := precoOrZero(a.Referencia.Preco)
			pb := precoOrZero(b.Referencia.Preco)
			switch {
			case pa < pb:
				return -1
			case pa > pb:
				return 1
			default:
				return 0
			}
		}
	case "savings":
		cmp = func(a, b *entities.Medicamento) int {
			sa := SavingsPercent(a)
			sb := SavingsPercent(b)
			switch {
			case sa < sb:
				return -1
			case sa > sb:
				return 1
			default:
				return 0
			}
		}
	default:
		// Substance names are Brazilian Portuguese; collate instead of
		// comparing raw bytes. A Collator is not goroutine-safe, so
		// one is built per sort.
		collator := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
		cmp = func(a, b *entities.Medicamento) int {
			return collator.CompareString(a.Substancia, b.Substancia)
		}
	}

	desc := sortOrder == "desc"
	sort.SliceStable(results, func(i, j int) bool {
		c := cmp(&results[i], &results[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func precoOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Paginate slices one 1-indexed page out of results. A page past the
// end yields an empty slice with the same totals, not an error.
func Paginate(results []entities.Medicamento, page int, pageSize int) ([]entities.Medicamento, entities.Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(results)
	totalPages := (total + pageSize - 1) / pageSize

	pagination := entities.Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}

	start := (page - 1) * pageSize
	if start >= total {
		return []entities.Medicamento{}, pagination
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return results[start:end], pagination
}

// SavingsPercent is the relative discount of the cheapest available
// generic versus the reference price. It is defined as 0 (not null)
// when the reference price or every generic price is unavailable, so
// it always works as a sort key.
func SavingsPercent(m *entities.Medicamento) float64 {
	if m.Referencia.Preco == nil || len(m.Genericos) == 0 {
		return 0
	}
	// Genericos are sorted ascending with unpriced last, so the first
	// priced entry is the cheapest.
	for i := range m.Genericos {
		if p := m.Genericos[i].Preco; p != nil {
			return (*m.Referencia.Preco - *p) / *m.Referencia.Preco * 100
		}
	}
	return 0
}

// MedicamentoComEconomia decorates a medicamento with its rounded
// savings percentage for the ranking view.
type MedicamentoComEconomia struct {
	entities.Medicamento
	SavingsPercent float64 `json:"savingsPercent"`
}

// TopSavings returns the limit highest-savings substances. Substances
// without a computable positive savings are excluded from the ranking.
func TopSavings(snap *entities.Snapshot, limit int) []MedicamentoComEconomia {
	if limit <= 0 {
		limit = 20
	}

	ranked := []MedicamentoComEconomia{}
	for i := range snap.Medicamentos {
		m := snap.Medicamentos[i]
		savings := math.Round(SavingsPercent(&m)*10) / 10
		if savings <= 0 {
			continue
		}
		ranked = append(ranked, MedicamentoComEconomia{Medicamento: m, SavingsPercent: savings})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SavingsPercent > ranked[j].SavingsPercent
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// FindBySubstancia returns the aggregate whose substance name matches
// exactly, ignoring case, or nil.
func FindBySubstancia(snap *entities.Snapshot, substancia string) *entities.Medicamento {
	for i := range snap.Medicamentos {
		if strings.EqualFold(snap.Medicamentos[i].Substancia, substancia) {
			return &snap.Medicamentos[i]
		}
	}
	return nil
}

// Stats summarizes the active snapshot.
type Stats struct {
	TotalMedicamentos int      `json:"totalMedicamentos"`
	TotalWithGenerics int      `json:"totalWithGenerics"`
	TotalWithSimilars int      `json:"totalWithSimilars"`
	TotalCategories   int      `json:"totalCategories"`
	TotalFormas       int      `json:"totalFormas"`
	AvgPrice          float64  `json:"avgPrice"`
	LastUpdate        string   `json:"lastUpdate"`
	Source            string   `json:"source"`
	Formas            []string `json:"formas"`
	Tarjas            []string `json:"tarjas"`
}

// ComputeStats derives the stats block from the snapshot. The average
// only covers substances whose reference has a price.
func ComputeStats(snap *entities.Snapshot) Stats {
	formas := make(map[string]bool)
	tarjas := make(map[string]bool)
	comGenericos := 0
	comSimilares := 0
	somaPrecos := 0.0
	comPreco := 0

	for i := range snap.Medicamentos {
		m := &snap.Medicamentos[i]
		formas[m.FormaFarmaceutica] = true
		tarjas[m.Tarja] = true
		if len(m.Genericos) > 0 {
			comGenericos++
		}
		if len(m.Similares) > 0 {
			comSimilares++
		}
		if m.Referencia.Preco != nil {
			somaPrecos += *m.Referencia.Preco
			comPreco++
		}
	}

	avgPrice := 0.0
	if comPreco > 0 {
		avgPrice = math.Round(somaPrecos/float64(comPreco)*100) / 100
	}

	return Stats{
		TotalMedicamentos: len(snap.Medicamentos),
		TotalWithGenerics: comGenericos,
		TotalWithSimilars: comSimilares,
		TotalCategories:   len(snap.Categories),
		TotalFormas:       len(formas),
		AvgPrice:          avgPrice,
		LastUpdate:        snap.Metadata.LastUpdate,
		Source:            snap.Metadata.Source,
		Formas:            sortedKeys(formas),
		Tarjas:            sortedKeys(tarjas),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
