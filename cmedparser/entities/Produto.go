package entities

// Produto is one commercial presentation of a drug in the CMED price
// table. Preco is nil when the source row has no usable price; a parse
// failure is never coerced to zero.
type Produto struct {
	Nome          string   `json:"nome"`
	Laboratorio   string   `json:"laboratorio"`
	Preco         *float64 `json:"preco"`
	Apresentacao  string   `json:"apresentacao"`
	Tipo          string   `json:"tipo"`
	Apresentacoes int      `json:"apresentacoes"`
	Ean           string   `json:"ean"`
	Registro      string   `json:"registro"`
}
