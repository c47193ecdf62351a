package api

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariephoon/aiva/internal/model"
)

// health is the liveness probe. Returns 200 while the process is alive.
func health(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// readiness is the readiness probe. Pings the database so a broken pool
// takes the instance out of rotation.
func readiness(pool *pgxpool.Pool, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			http.Error(w, "database pool not configured", http.StatusServiceUnavailable)
			return
		}
		if err := pool.Ping(r.Context()); err != nil {
			logger.Error("readiness check failed", "error", err)
			http.Error(w, "database not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}

// modelItem is the JSON representation of one catalog entry.
type modelItem struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// listModels handles GET /api/models: the fixed model catalog for the UI
// model picker.
func listModels(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		catalog := model.All()
		items := make([]modelItem, len(catalog))
		for i, m := range catalog {
			items[i] = modelItem{
				Name:        m.APIName,
				Label:       m.Label,
				Description: m.Description,
			}
		}
		writeJSON(w, http.StatusOK, items, logger)
	}
}
