package handlers

import (
	"fmt"
	"net/http"
	"time"

	"techtrack/internal/domain"
	"techtrack/internal/httpserver/deps"
	"techtrack/internal/tracker"
)

func statusError(status domain.Status) error {
	return fmt.Errorf("%w: status %q", tracker.ErrInvalid, status)
}

type resourceBody struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

func toResources(in []resourceBody) []domain.Resource {
	if in == nil {
		return nil
	}
	out := make([]domain.Resource, 0, len(in))
	for _, r := range in {
		out = append(out, domain.Resource{
			Title: r.Title,
			URL:   r.URL,
			Type:  domain.ResourceType(r.Type),
		})
	}
	return out
}

// SetStatus handles PUT /api/technologies/{id}/status.
func SetStatus(d deps.Deps) http.HandlerFunc {
	type body struct {
		Status string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var b body
		if !decodeBody(w, r, &b) {
			return
		}
		tech, err := d.Tracker.SetStatus(r.Context(), id, domain.Status(b.Status))
		writeMutation(w, viewOf(tech, d), err)
	}
}

// SetNotes handles PUT /api/technologies/{id}/notes.
func SetNotes(d deps.Deps) http.HandlerFunc {
	type body struct {
		Notes string `json:"notes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var b body
		if !decodeBody(w, r, &b) {
			return
		}
		tech, err := d.Tracker.SetNotes(r.Context(), id, b.Notes)
		writeMutation(w, viewOf(tech, d), err)
	}
}

// SetResources handles PUT /api/technologies/{id}/resources, replacing
// the whole list.
func SetResources(d deps.Deps) http.HandlerFunc {
	type body struct {
		Resources []resourceBody `json:"resources"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var b body
		if !decodeBody(w, r, &b) {
			return
		}
		tech, err := d.Tracker.SetResources(r.Context(), id, toResources(b.Resources))
		writeMutation(w, viewOf(tech, d), err)
	}
}

// SetDeadline handles PUT /api/technologies/{id}/deadline. A null or
// absent deadline clears it.
func SetDeadline(d deps.Deps) http.HandlerFunc {
	type body struct {
		Deadline *string `json:"deadline"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var b body
		if !decodeBody(w, r, &b) {
			return
		}

		var deadline *time.Time
		if b.Deadline != nil && *b.Deadline != "" {
			parsed, err := parseDeadline(*b.Deadline)
			if err != nil {
				writeError(w, fmt.Errorf("%w: %v", tracker.ErrInvalid, err))
				return
			}
			deadline = &parsed
		}

		tech, err := d.Tracker.SetDeadline(r.Context(), id, deadline)
		writeMutation(w, viewOf(tech, d), err)
	}
}

func parseDeadline(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q", s)
}

type bulkResponse struct {
	Updated int `json:"updated"`
}

// BulkSetStatus handles POST /api/technologies/bulk/status: one status
// applied to many ids in a single persisted write.
func BulkSetStatus(d deps.Deps) http.HandlerFunc {
	type body struct {
		IDs    []int64 `json:"ids"`
		Status string  `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var b body
		if !decodeBody(w, r, &b) {
			return
		}
		if len(b.IDs) == 0 {
			writeError(w, fmt.Errorf("%w: ids must not be empty", tracker.ErrInvalid))
			return
		}
		n, err := d.Tracker.BulkSetStatus(r.Context(), b.IDs, domain.Status(b.Status))
		writeMutation(w, bulkResponse{Updated: n}, err)
	}
}

// MarkAllCompleted handles POST /api/technologies/bulk/complete.
func MarkAllCompleted(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := d.Tracker.MarkAllCompleted(r.Context())
		writeMutation(w, bulkResponse{Updated: n}, err)
	}
}

// ResetAllStatuses handles POST /api/technologies/bulk/reset.
func ResetAllStatuses(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := d.Tracker.ResetAllStatuses(r.Context())
		writeMutation(w, bulkResponse{Updated: n}, err)
	}
}

// AddCustomTechnology handles POST /api/technologies.
func AddCustomTechnology(d deps.Deps) http.HandlerFunc {
	type body struct {
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Category    string         `json:"category"`
		Difficulty  string         `json:"difficulty"`
		Status      string         `json:"status"`
		Notes       string         `json:"notes"`
		Resources   []resourceBody `json:"resources"`
		Deadline    *string        `json:"deadline"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var b body
		if !decodeBody(w, r, &b) {
			return
		}

		input := tracker.AddCustomInput{
			Title:       b.Title,
			Description: b.Description,
			Category:    domain.Category(b.Category),
			Difficulty:  domain.Difficulty(b.Difficulty),
			Status:      domain.Status(b.Status),
			Notes:       b.Notes,
			Resources:   toResources(b.Resources),
		}
		if b.Deadline != nil && *b.Deadline != "" {
			parsed, err := parseDeadline(*b.Deadline)
			if err != nil {
				writeError(w, fmt.Errorf("%w: %v", tracker.ErrInvalid, err))
				return
			}
			input.Deadline = &parsed
		}

		tech, err := d.Tracker.AddCustom(r.Context(), input)
		if err != nil {
			writeMutation(w, viewOf(tech, d), err)
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(tech, d))
	}
}

// AddFromCatalog handles POST /api/technologies/catalog: copies a
// catalog entry into the working set by id. Adding twice is a no-op.
func AddFromCatalog(d deps.Deps) http.HandlerFunc {
	type body struct {
		ID int64 `json:"id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var b body
		if !decodeBody(w, r, &b) {
			return
		}

		var entry *domain.Technology
		for i := range d.Catalog {
			if d.Catalog[i].ID == b.ID {
				entry = &d.Catalog[i]
				break
			}
		}
		if entry == nil {
			writeError(w, fmt.Errorf("%w: catalog id %d", tracker.ErrNotFound, b.ID))
			return
		}

		tech, added, err := d.Tracker.AddFromCatalog(r.Context(), *entry)
		if err != nil {
			writeMutation(w, viewOf(tech, d), err)
			return
		}
		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		writeJSON(w, status, viewOf(tech, d))
	}
}

// EditCustomTechnology handles PATCH /api/technologies/{id}. Only
// user-authored entries accept the patch; absent fields stay untouched.
func EditCustomTechnology(d deps.Deps) http.HandlerFunc {
	type body struct {
		Title       *string         `json:"title"`
		Description *string         `json:"description"`
		Category    *string         `json:"category"`
		Difficulty  *string         `json:"difficulty"`
		Status      *string         `json:"status"`
		Notes       *string         `json:"notes"`
		Resources   *[]resourceBody `json:"resources"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var b body
		if !decodeBody(w, r, &b) {
			return
		}

		patch := tracker.Patch{
			Title:       b.Title,
			Description: b.Description,
			Notes:       b.Notes,
		}
		if b.Category != nil {
			c := domain.Category(*b.Category)
			patch.Category = &c
		}
		if b.Difficulty != nil {
			df := domain.Difficulty(*b.Difficulty)
			patch.Difficulty = &df
		}
		if b.Status != nil {
			s := domain.Status(*b.Status)
			patch.Status = &s
		}
		if b.Resources != nil {
			res := toResources(*b.Resources)
			patch.Resources = &res
		}

		tech, err := d.Tracker.EditCustom(r.Context(), id, patch)
		writeMutation(w, viewOf(tech, d), err)
	}
}

// DeleteTechnology handles DELETE /api/technologies/{id}.
func DeleteTechnology(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := d.Tracker.Delete(r.Context(), id); err != nil {
			writeMutation(w, map[string]int64{"deleted": id}, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
	}
}
