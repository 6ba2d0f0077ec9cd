// Package handlers provides the HTTP request handlers for the CMED
// price API: search, substance lookup, savings ranking, statistics,
// refresh trigger and health check.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medfocus/cmed-api/interfaces"
	"github.com/medfocus/cmed-api/logging"
	"github.com/medfocus/cmed-api/queries"
	"github.com/medfocus/cmed-api/validation"
)

// maxPageSize bounds a single response; the whole dataset is a few
// thousand aggregates, so this still allows a full export in one page.
const maxPageSize = 10000

var serverStartTime = time.Now()

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(raw)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// SearchMedicamentos handles the search/filter/sort/paginate query.
func SearchMedicamentos(store interfaces.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qp := r.URL.Query()

		params := queries.SearchParams{
			Query:        qp.Get("q"),
			Categoria:    qp.Get("categoria"),
			Tarja:        qp.Get("tarja"),
			Forma:        qp.Get("forma"),
			ComGenericos: qp.Get("comGenericos") == "true",
			SortBy:       qp.Get("sortBy"),
			SortOrder:    qp.Get("sortOrder"),
			Page:         atoiDefault(qp.Get("page"), 1),
			PageSize:     atoiDefault(qp.Get("pageSize"), queries.DefaultPageSize),
		}

		if err := validation.ValidateInput(params.Query); err != nil {
			logging.Warn("Unusual user input", "q", params.Query)
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if params.PageSize > maxPageSize {
			params.PageSize = maxPageSize
		}

		snap := store.Get()
		items, pagination := queries.Search(snap, params)

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"medicamentos": items,
			"pagination":   pagination,
		})
	}
}

// FindBySubstancia looks one substance up by exact name.
func FindBySubstancia(store interfaces.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		substancia := chi.URLParam(r, "substancia")
		if strings.TrimSpace(substancia) == "" {
			RespondWithError(w, http.StatusBadRequest, "Missing substance name")
			return
		}
		if err := validation.ValidateInput(substancia); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		snap := store.Get()
		medicamento := queries.FindBySubstancia(snap, substancia)
		if medicamento == nil {
			RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Substance not found: %s", substancia))
			return
		}

		RespondWithJSON(w, http.StatusOK, medicamento)
	}
}

// TopSavings serves the highest-savings ranking.
func TopSavings(store interfaces.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), 20)
		if limit > 100 {
			limit = 100
		}

		snap := store.Get()
		RespondWithJSON(w, http.StatusOK, queries.TopSavings(snap, limit))
	}
}

// Estatisticas serves dataset-level statistics.
func Estatisticas(store interfaces.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := store.Get()
		RespondWithJSON(w, http.StatusOK, queries.ComputeStats(snap))
	}
}

// Categorias serves the distinct therapeutic categories.
func Categorias(store interfaces.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := store.Get()
		RespondWithJSON(w, http.StatusOK, snap.Categories)
	}
}

// Metadados serves the snapshot metadata block.
func Metadados(store interfaces.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := store.Get()
		RespondWithJSON(w, http.StatusOK, snap.Metadata)
	}
}

// Refresh triggers one refresh run and reports its outcome. The
// outcome travels in the body; a failed run is still a handled
// request.
func Refresh(refresher interfaces.Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := refresher.Run()
		RespondWithJSON(w, http.StatusOK, result)
	}
}

// HealthCheck reports service and dataset status.
func HealthCheck(store interfaces.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		snap := store.Get()

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":          "healthy",
			"substancias":     len(snap.Medicamentos),
			"last_update":     snap.Metadata.LastUpdate,
			"cache_loaded_at": store.LastLoaded(),
			"updating":        store.IsUpdating(),
			"uptime":          formatUptimeHuman(time.Since(serverStartTime)),
			"memory_usage_mb": int(m.Alloc / 1024 / 1024),
		})
	}
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

func atoiDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
