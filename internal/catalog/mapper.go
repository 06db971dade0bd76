package catalog

import (
	"fmt"
	"net/url"
	"time"

	"techtrack/internal/domain"
)

// Mapper converts raw catalog entries to domain.Technology values.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// MapTechnologies converts a catalog File to domain technologies.
//
// Entries that cannot form a well-formed Technology (missing id or
// title, invalid enums) are skipped rather than failing the whole
// catalog; duplicated ids keep the first occurrence. An entirely empty
// result is an error so the caller falls back to the built-in set.
func (m *Mapper) MapTechnologies(file File) ([]domain.Technology, error) {
	now := time.Now()
	seen := make(map[int64]bool, len(file.Technologies))
	var techs []domain.Technology

	for _, props := range file.Technologies {
		if props.ID <= 0 || props.Title == "" {
			continue
		}
		if seen[props.ID] {
			continue
		}

		category := domain.Category(props.Category)
		if !category.Valid() {
			category = domain.CategoryOther
		}
		difficulty := domain.Difficulty(props.Difficulty)
		if !difficulty.Valid() {
			difficulty = domain.DifficultyBeginner
		}
		status := domain.Status(props.Status)
		if !status.Valid() {
			status = domain.StatusNotStarted
		}

		createdAt := now
		if props.CreatedAt != "" {
			if parsed, err := time.Parse(time.RFC3339, props.CreatedAt); err == nil {
				createdAt = parsed
			}
		}

		tech := domain.Technology{
			ID:          props.ID,
			Title:       props.Title,
			Description: props.Description,
			Category:    category,
			Difficulty:  difficulty,
			Status:      status,
			Notes:       props.Notes,
			Resources:   mapResources(props.Resources),
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}

		seen[props.ID] = true
		techs = append(techs, tech)
	}

	if len(techs) == 0 {
		return nil, fmt.Errorf("no valid technologies found in catalog")
	}
	return techs, nil
}

func mapResources(props []ResourceProps) []domain.Resource {
	var resources []domain.Resource
	for _, p := range props {
		if p.Title == "" || p.URL == "" {
			continue
		}
		if _, err := url.Parse(p.URL); err != nil {
			continue
		}
		resType := domain.ResourceType(p.Type)
		if !resType.Valid() {
			resType = domain.ResourceDocumentation
		}
		resources = append(resources, domain.Resource{
			Title: p.Title,
			URL:   p.URL,
			Type:  resType,
		})
	}
	return resources
}
