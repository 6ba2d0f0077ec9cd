package entities

// Medicamento aggregates every commercial product sharing one active
// substance. Referencia never appears again in Genericos or Similares,
// and both lists are kept sorted ascending by price with unpriced
// entries last.
type Medicamento struct {
	ID                 int       `json:"id"`
	Substancia         string    `json:"substancia"`
	Referencia         Produto   `json:"referencia"`
	Genericos          []Produto `json:"genericos"`
	Similares          []Produto `json:"similares"`
	ClasseCode         string    `json:"classeCode"`
	ClasseNome         string    `json:"classeNome"`
	ClasseFull         string    `json:"classeFull"`
	Tarja              string    `json:"tarja"`
	FormaFarmaceutica  string    `json:"formaFarmaceutica"`
	TotalApresentacoes int       `json:"totalApresentacoes"`
}
