package cmedparser

import (
	"sort"
	"strconv"
	"strings"

	"github.com/medfocus/cmed-api/cmedparser/entities"
)

// Column positions in the CMED table. Price columns accumulate across
// historical price lists, so several generations coexist in one row.
const (
	colSubstancia   = 0
	colLaboratorio  = 2
	colRegistro     = 4
	colEan          = 5
	colProduto      = 8
	colApresentacao = 9
	colClasse       = 10
	colTipo         = 11
	colPF17         = 17
	colPMC17        = 43
	colPMC18        = 47
	colTarja        = 72
)

// produtoTipo is the closed classification of a CMED product group.
type produtoTipo int

const (
	tipoReferencia produtoTipo = iota
	tipoGenerico
	tipoSimilar
)

// classify maps the regulatory product-type label to its variant.
// New, reference and biologic products all anchor the price baseline.
// Anything that is neither of those nor a generic is a similar: that
// is the fallback the dataset itself uses, not a silent default.
func classify(label string) produtoTipo {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "novo"), strings.Contains(l, "refer"), strings.Contains(l, "biológ"):
		return tipoReferencia
	case strings.Contains(l, "genér"), strings.Contains(l, "genic"):
		return tipoGenerico
	default:
		return tipoSimilar
	}
}

// ParsePrice converts a locale-formatted price ("1.234,56") to a
// decimal. Empty fields and placeholder dashes yield nil, and so does
// any conversion failure; a bad price is never coerced to zero.
func ParsePrice(val string) *float64 {
	v := strings.TrimSpace(val)
	if v == "" || strings.Contains(v, "-") {
		return nil
	}
	v = strings.ReplaceAll(v, ".", "")
	v = strings.ReplaceAll(v, ",", ".")
	p, err := strconv.ParseFloat(v, 64)
	if err != nil || p < 0 {
		return nil
	}
	return &p
}

// field returns the trimmed column value, tolerating rows shorter than
// the highest column index (the tail columns are not part of the
// minimum field count).
func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// selectPreco picks the first populated value from the most recent
// consolidated price to the oldest factory price.
func selectPreco(row []string) *float64 {
	for _, idx := range [...]int{colPMC18, colPMC17, colPF17} {
		if p := ParsePrice(field(row, idx)); p != nil {
			return p
		}
	}
	return nil
}

// BuildMedicamentos groups the raw rows by substance and product,
// classifies every product group and selects one reference per
// substance. Substances with no qualifying product group at all are
// dropped.
func BuildMedicamentos(rows [][]string) []entities.Medicamento {
	bySubstancia := make(map[string][][]string)
	for _, row := range rows {
		sub := field(row, colSubstancia)
		if sub == "" {
			continue
		}
		bySubstancia[sub] = append(bySubstancia[sub], row)
	}

	substancias := make([]string, 0, len(bySubstancia))
	for sub := range bySubstancia {
		substancias = append(substancias, sub)
	}
	sort.Strings(substancias)

	medicamentos := make([]entities.Medicamento, 0, len(bySubstancia))
	id := 0

	for _, sub := range substancias {
		subRows := bySubstancia[sub]

		// Group by product name, preserving first-seen order so that
		// reference promotion is deterministic.
		porProduto := make(map[string][][]string)
		var produtoOrder []string
		for _, row := range subRows {
			nome := field(row, colProduto)
			if _, seen := porProduto[nome]; !seen {
				produtoOrder = append(produtoOrder, nome)
			}
			porProduto[nome] = append(porProduto[nome], row)
		}

		var referencia *entities.Produto
		var refPreco *float64
		genericos := []entities.Produto{}
		similares := []entities.Produto{}

		for _, nome := range produtoOrder {
			productRows := porProduto[nome]
			first := productRows[0]
			preco := selectPreco(first)

			produto := entities.Produto{
				Nome:          nome,
				Laboratorio:   field(first, colLaboratorio),
				Preco:         preco,
				Apresentacao:  field(first, colApresentacao),
				Tipo:          field(first, colTipo),
				Apresentacoes: len(productRows),
				Ean:           field(first, colEan),
				Registro:      field(first, colRegistro),
			}

			switch classify(produto.Tipo) {
			case tipoReferencia:
				// Highest selected price wins among reference
				// candidates; losing candidates are discarded.
				if referencia == nil || (preco != nil && (refPreco == nil || *preco > *refPreco)) {
					p := produto
					referencia = &p
					refPreco = preco
				}
			case tipoGenerico:
				genericos = append(genericos, produto)
			default:
				similares = append(similares, produto)
			}
		}

		if referencia == nil {
			// No reference-type product: promote the first generic,
			// then the first similar, so the substance is not lost.
			switch {
			case len(genericos) > 0:
				p := genericos[0]
				referencia = &p
				genericos = genericos[1:]
			case len(similares) > 0:
				p := similares[0]
				referencia = &p
				similares = similares[1:]
			default:
				continue
			}
		}

		sortByPreco(genericos)
		sortByPreco(similares)

		classe := field(subRows[0], colClasse)
		classeCode, classeNome := splitClasse(classe)

		id++
		medicamentos = append(medicamentos, entities.Medicamento{
			ID:                 id,
			Substancia:         sub,
			Referencia:         *referencia,
			Genericos:          genericos,
			Similares:          similares,
			ClasseCode:         classeCode,
			ClasseNome:         classeNome,
			ClasseFull:         classe,
			Tarja:              normalizeTarja(field(subRows[0], colTarja)),
			FormaFarmaceutica:  "Outro",
			TotalApresentacoes: len(subRows),
		})
	}

	return medicamentos
}

// sortByPreco orders products ascending by price, unpriced last.
func sortByPreco(produtos []entities.Produto) {
	sort.SliceStable(produtos, func(i, j int) bool {
		pi, pj := produtos[i].Preco, produtos[j].Preco
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		return *pi < *pj
	})
}

// splitClasse separates the therapeutic class field ("N02B - Analgésicos
// não narcóticos") into code and name. Without the separator the whole
// string serves as both.
func splitClasse(classe string) (code string, nome string) {
	if i := strings.Index(classe, " - "); i >= 0 {
		return strings.TrimSpace(classe[:i]), strings.TrimSpace(classe[i+3:])
	}
	return classe, classe
}

// normalizeTarja folds the free-form dispensation label into the four
// canonical categories.
func normalizeTarja(tarja string) string {
	t := strings.ToLower(tarja)
	switch {
	case strings.Contains(t, "preta"):
		return "Receita Especial (Tarja Preta)"
	case strings.Contains(t, "vermelha"):
		return "Receita Simples (Tarja Vermelha)"
	case strings.Contains(t, "amarela"):
		return "Receita Amarela"
	default:
		return "Venda Livre (Sem Tarja)"
	}
}
