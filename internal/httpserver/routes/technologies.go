package routes

import (
	"github.com/go-chi/chi/v5"

	"techtrack/internal/httpserver/deps"
	"techtrack/internal/httpserver/handlers"
)

func init() { Register(registerTechnologies) }

func registerTechnologies(r chi.Router, d deps.Deps) {
	r.Route("/api/technologies", func(r chi.Router) {
		r.Get("/", handlers.ListTechnologies(d))
		r.Post("/", handlers.AddCustomTechnology(d))
		r.Post("/catalog", handlers.AddFromCatalog(d))
		r.Post("/bulk/status", handlers.BulkSetStatus(d))
		r.Post("/bulk/complete", handlers.MarkAllCompleted(d))
		r.Post("/bulk/reset", handlers.ResetAllStatuses(d))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.GetTechnology(d))
			r.Patch("/", handlers.EditCustomTechnology(d))
			r.Delete("/", handlers.DeleteTechnology(d))
			r.Put("/status", handlers.SetStatus(d))
			r.Put("/notes", handlers.SetNotes(d))
			r.Put("/resources", handlers.SetResources(d))
			r.Put("/deadline", handlers.SetDeadline(d))
		})
	})

	r.Get("/api/catalog", handlers.ListCatalog(d))
	r.Get("/api/stats", handlers.GetStats(d))
}
