package catalog

import (
	"time"

	"techtrack/internal/domain"
)

// Fallback returns the built-in catalog used when no external source is
// reachable. It is small but well formed, so every session has something
// to reconcile against.
func Fallback() []domain.Technology {
	now := time.Now()

	entry := func(id int64, title, description string, category domain.Category, difficulty domain.Difficulty, resources ...domain.Resource) domain.Technology {
		return domain.Technology{
			ID:          id,
			Title:       title,
			Description: description,
			Category:    category,
			Difficulty:  difficulty,
			Status:      domain.StatusNotStarted,
			Resources:   resources,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	return []domain.Technology{
		entry(1, "React", "Library for building user interfaces",
			domain.CategoryFrontend, domain.DifficultyBeginner,
			domain.Resource{Title: "React documentation", URL: "https://react.dev", Type: domain.ResourceDocumentation},
		),
		entry(2, "Node.js", "JavaScript runtime for the server",
			domain.CategoryBackend, domain.DifficultyIntermediate,
			domain.Resource{Title: "Node.js documentation", URL: "https://nodejs.org/en/docs", Type: domain.ResourceDocumentation},
		),
		entry(3, "TypeScript", "Typed superset of JavaScript",
			domain.CategoryFrontend, domain.DifficultyIntermediate,
			domain.Resource{Title: "TypeScript handbook", URL: "https://www.typescriptlang.org/docs/", Type: domain.ResourceDocumentation},
		),
		entry(4, "MongoDB", "Document-oriented database",
			domain.CategoryDatabase, domain.DifficultyIntermediate,
			domain.Resource{Title: "MongoDB manual", URL: "https://www.mongodb.com/docs/", Type: domain.ResourceDocumentation},
		),
		entry(5, "Docker", "Container runtime and packaging toolchain",
			domain.CategoryDevops, domain.DifficultyIntermediate,
			domain.Resource{Title: "Docker docs", URL: "https://docs.docker.com", Type: domain.ResourceDocumentation},
		),
		entry(6, "PostgreSQL", "Relational database with strong SQL support",
			domain.CategoryDatabase, domain.DifficultyAdvanced,
			domain.Resource{Title: "PostgreSQL documentation", URL: "https://www.postgresql.org/docs/", Type: domain.ResourceDocumentation},
		),
	}
}
