package queries

import (
	"testing"

	"github.com/medfocus/cmed-api/cmedparser/entities"
)

func preco(v float64) *float64 {
	return &v
}

func med(substancia string, refPreco *float64, genPrecos ...*float64) entities.Medicamento {
	m := entities.Medicamento{
		Substancia: substancia,
		Referencia: entities.Produto{
			Nome:        substancia + " Ref",
			Laboratorio: "Lab " + substancia,
			Preco:       refPreco,
		},
		ClasseNome:        "Analgésicos",
		Tarja:             "Venda Livre (Sem Tarja)",
		FormaFarmaceutica: "Outro",
	}
	for _, p := range genPrecos {
		m.Genericos = append(m.Genericos, entities.Produto{
			Nome:  substancia + " Genérico",
			Preco: p,
			Tipo:  "Genérico",
		})
	}
	return m
}

func testSnapshot() *entities.Snapshot {
	return &entities.Snapshot{
		Categories: []string{"Analgésicos"},
		Medicamentos: []entities.Medicamento{
			med("DIPIRONA SÓDICA", preco(100), preco(60)),
			med("OMEPRAZOL", preco(50), preco(45)),
			med("AMOXICILINA", preco(30)),
			med("PARACETAMOL", nil, preco(10)),
		},
	}
}

func TestSearchByGenericName(t *testing.T) {
	results, _ := Search(testSnapshot(), SearchParams{Query: "omeprazol genérico"})
	if len(results) != 1 || results[0].Substancia != "OMEPRAZOL" {
		t.Errorf("Expected match via generic product name, got %v", results)
	}
}

func TestSearchFiltersCompose(t *testing.T) {
	snap := testSnapshot()
	snap.Medicamentos[0].Tarja = "Receita Simples (Tarja Vermelha)"

	results, _ := Search(snap, SearchParams{
		Categoria:    "Analgésicos",
		Tarja:        "Tarja Vermelha",
		ComGenericos: true,
	})
	if len(results) != 1 || results[0].Substancia != "DIPIRONA SÓDICA" {
		t.Errorf("Expected only the red-stripe substance with generics, got %v", results)
	}
}

func TestSearchSentinelDisablesFilter(t *testing.T) {
	results, pagination := Search(testSnapshot(), SearchParams{
		Categoria: "Todas",
		Tarja:     "Todas",
		Forma:     "Todas",
	})
	if pagination.Total != 4 {
		t.Errorf("Sentinel filters should match everything, got %d", pagination.Total)
	}
	if len(results) != 4 {
		t.Errorf("Expected all 4 results, got %d", len(results))
	}
}

func TestSearchDefaultSortIsNameAscending(t *testing.T) {
	results, _ := Search(testSnapshot(), SearchParams{})
	want := []string{"AMOXICILINA", "DIPIRONA SÓDICA", "OMEPRAZOL", "PARACETAMOL"}
	for i, w := range want {
		if results[i].Substancia != w {
			t.Errorf("Position %d: expected %q, got %q", i, w, results[i].Substancia)
		}
	}
}

func TestSearchSortByPriceDescending(t *testing.T) {
	results, _ := Search(testSnapshot(), SearchParams{SortBy: "price", SortOrder: "desc"})
	if results[0].Substancia != "DIPIRONA SÓDICA" {
		t.Errorf("Expected most expensive first, got %q", results[0].Substancia)
	}
	// Unavailable price sorts as zero.
	if results[len(results)-1].Substancia != "PARACETAMOL" {
		t.Errorf("Expected unpriced reference last, got %q", results[len(results)-1].Substancia)
	}
}

func TestSearchSortBySavings(t *testing.T) {
	results, _ := Search(testSnapshot(), SearchParams{SortBy: "savings", SortOrder: "desc"})
	// DIPIRONA 40%, OMEPRAZOL 10%, the rest 0.
	if results[0].Substancia != "DIPIRONA SÓDICA" || results[1].Substancia != "OMEPRAZOL" {
		t.Errorf("Unexpected savings ordering: %q, %q", results[0].Substancia, results[1].Substancia)
	}
}

func TestPaginate(t *testing.T) {
	snap := testSnapshot()

	results, pagination := Search(snap, SearchParams{Page: 2, PageSize: 3})
	if pagination.Total != 4 || pagination.TotalPages != 2 {
		t.Errorf("Unexpected totals: %+v", pagination)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result on the last page, got %d", len(results))
	}

	// A page past the end is empty but keeps the totals.
	results, pagination = Search(snap, SearchParams{Page: 9, PageSize: 3})
	if len(results) != 0 {
		t.Errorf("Expected empty page past the end, got %d results", len(results))
	}
	if pagination.Total != 4 || pagination.TotalPages != 2 {
		t.Errorf("Totals must not change past the end: %+v", pagination)
	}
}

func TestPaginateDefaults(t *testing.T) {
	_, pagination := Search(testSnapshot(), SearchParams{Page: -3, PageSize: 0})
	if pagination.Page != 1 {
		t.Errorf("Expected page clamped to 1, got %d", pagination.Page)
	}
	if pagination.PageSize != DefaultPageSize {
		t.Errorf("Expected default page size %d, got %d", DefaultPageSize, pagination.PageSize)
	}
}

func TestSavingsPercent(t *testing.T) {
	m := med("DIPIRONA SÓDICA", preco(100), preco(60))
	if got := SavingsPercent(&m); got != 40 {
		t.Errorf("Expected 40%% savings, got %v", got)
	}

	semRef := med("X", nil, preco(10))
	if got := SavingsPercent(&semRef); got != 0 {
		t.Errorf("Expected 0 without a reference price, got %v", got)
	}

	semGen := med("Y", preco(100))
	if got := SavingsPercent(&semGen); got != 0 {
		t.Errorf("Expected 0 without generics, got %v", got)
	}

	genSemPreco := med("Z", preco(100), nil)
	if got := SavingsPercent(&genSemPreco); got != 0 {
		t.Errorf("Expected 0 when no generic has a price, got %v", got)
	}
}

func TestTopSavings(t *testing.T) {
	ranked := TopSavings(testSnapshot(), 10)
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 ranked substances, got %d", len(ranked))
	}
	if ranked[0].Substancia != "DIPIRONA SÓDICA" || ranked[0].SavingsPercent != 40 {
		t.Errorf("Unexpected top entry: %q %v", ranked[0].Substancia, ranked[0].SavingsPercent)
	}
	if ranked[1].Substancia != "OMEPRAZOL" || ranked[1].SavingsPercent != 10 {
		t.Errorf("Unexpected second entry: %q %v", ranked[1].Substancia, ranked[1].SavingsPercent)
	}

	limited := TopSavings(testSnapshot(), 1)
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d entries", len(limited))
	}
}

func TestFindBySubstancia(t *testing.T) {
	snap := testSnapshot()

	if m := FindBySubstancia(snap, "dipirona sódica"); m == nil || m.Substancia != "DIPIRONA SÓDICA" {
		t.Errorf("Expected case-insensitive exact match, got %v", m)
	}
	if m := FindBySubstancia(snap, "DIPIRONA"); m != nil {
		t.Errorf("Partial names must not match, got %v", m)
	}
	if m := FindBySubstancia(snap, "INEXISTENTE"); m != nil {
		t.Errorf("Expected nil for unknown substance, got %v", m)
	}
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(testSnapshot())

	if stats.TotalMedicamentos != 4 {
		t.Errorf("Expected 4 medicamentos, got %d", stats.TotalMedicamentos)
	}
	if stats.TotalWithGenerics != 3 {
		t.Errorf("Expected 3 substances with generics, got %d", stats.TotalWithGenerics)
	}
	// Average over priced references only: (100+50+30)/3 = 60.
	if stats.AvgPrice != 60 {
		t.Errorf("Expected average price 60, got %v", stats.AvgPrice)
	}
	if stats.TotalCategories != 1 {
		t.Errorf("Expected 1 category, got %d", stats.TotalCategories)
	}
	if len(stats.Tarjas) == 0 || len(stats.Formas) == 0 {
		t.Errorf("Expected tarja and forma inventories, got %v / %v", stats.Tarjas, stats.Formas)
	}
}
