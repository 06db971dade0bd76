// Package payload defines the import/export wire format of the tracker
// and its validation. Validation is pure: it never touches storage, and
// a payload enters the store only after it passed.
package payload

import (
	"fmt"
	"time"

	"techtrack/internal/domain"
)

// Payload is the external JSON contract: what exportAll produces is
// exactly what importBatch accepts back.
type Payload struct {
	Technologies []Technology `json:"technologies"`
	Meta         *Meta        `json:"meta,omitempty"`
}

// Meta describes an exported payload.
type Meta struct {
	ExportedAt time.Time `json:"exportedAt"`
	Username   string    `json:"username"`
	Count      int       `json:"count"`
}

// Technology is the wire form of a technology. Dates travel as strings
// so the validator can report a malformed date instead of failing the
// whole JSON decode.
type Technology struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Difficulty  string             `json:"difficulty"`
	Status      string             `json:"status"`
	Deadline    *string            `json:"deadline,omitempty"`
	Resources   []Resource         `json:"resources,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	CreatedAt   string             `json:"createdAt,omitempty"`
	CustomData  *domain.CustomData `json:"customData,omitempty"`
}

// Resource is the wire form of a learning resource.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ToDomain converts a validated wire technology to the domain model.
// Call Validate first; conversion of an invalid entry returns an error.
func (t Technology) ToDomain(now time.Time) (domain.Technology, error) {
	tech := domain.Technology{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    domain.Category(t.Category),
		Difficulty:  domain.Difficulty(t.Difficulty),
		Status:      domain.Status(t.Status),
		Notes:       t.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if t.CreatedAt != "" {
		created, err := parseDate(t.CreatedAt)
		if err != nil {
			return domain.Technology{}, fmt.Errorf("field \"createdAt\": %w", err)
		}
		tech.CreatedAt = created
	}
	if t.Deadline != nil && *t.Deadline != "" {
		deadline, err := parseDate(*t.Deadline)
		if err != nil {
			return domain.Technology{}, fmt.Errorf("field \"deadline\": %w", err)
		}
		tech.Deadline = &deadline
	}
	for _, r := range t.Resources {
		tech.Resources = append(tech.Resources, domain.Resource{
			Title: r.Title,
			URL:   r.URL,
			Type:  domain.ResourceType(r.Type),
		})
	}
	if t.CustomData != nil {
		tech.Custom = *t.CustomData
	}
	return tech, nil
}

// FromDomain converts a domain technology to its wire form.
func FromDomain(tech domain.Technology) Technology {
	out := Technology{
		ID:          tech.ID,
		Title:       tech.Title,
		Description: tech.Description,
		Category:    string(tech.Category),
		Difficulty:  string(tech.Difficulty),
		Status:      string(tech.Status),
		Notes:       tech.Notes,
		CreatedAt:   tech.CreatedAt.Format(time.RFC3339),
	}
	if tech.Deadline != nil {
		d := tech.Deadline.Format(time.RFC3339)
		out.Deadline = &d
	}
	for _, r := range tech.Resources {
		out.Resources = append(out.Resources, Resource{
			Title: r.Title,
			URL:   r.URL,
			Type:  string(r.Type),
		})
	}
	if !tech.Custom.Zero() {
		custom := tech.Custom
		out.CustomData = &custom
	}
	return out
}

// Export builds the payload for a full working set.
func Export(techs []domain.Technology, username string, now time.Time) Payload {
	wire := make([]Technology, 0, len(techs))
	for _, tech := range techs {
		wire = append(wire, FromDomain(tech))
	}
	return Payload{
		Technologies: wire,
		Meta: &Meta{
			ExportedAt: now,
			Username:   username,
			Count:      len(wire),
		},
	}
}
