package routes

import (
	"github.com/go-chi/chi/v5"

	"techtrack/internal/httpserver/deps"
	"techtrack/internal/httpserver/handlers"
)

func init() { Register(registerData) }

func registerData(r chi.Router, d deps.Deps) {
	r.Get("/api/export", handlers.ExportData(d))
	r.Post("/api/import", handlers.ImportData(d))
	r.Delete("/api/data", handlers.ClearData(d))
}
