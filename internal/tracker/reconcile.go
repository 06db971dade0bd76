package tracker

import (
	"sort"
	"time"

	"techtrack/internal/domain"
)

// Override is the persisted delta of a catalog-derived technology: the
// id plus the mutable fields only. Immutable fields (title, description,
// category, difficulty) stay owned by the catalog.
//
// A tombstone (Deleted=true) records that the user removed a
// catalog-derived entry, so the removal survives re-merge and restart.
type Override struct {
	ID        int64             `json:"id"`
	Deleted   bool              `json:"deleted,omitempty"`
	Status    domain.Status     `json:"status,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Resources []domain.Resource `json:"resources,omitempty"`
	Deadline  *time.Time        `json:"deadline,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Custom    domain.CustomData `json:"customData,omitzero"`
}

// StoredState is the single document persisted per user: catalog deltas
// plus fully user-authored technologies. The working set itself is never
// persisted.
type StoredState struct {
	Overrides []Override          `json:"overrides,omitempty"`
	Custom    []domain.Technology `json:"custom,omitempty"`
}

// Merge reconciles the immutable catalog with the stored user state into
// the working set.
//
// Catalog-derived entries come first in catalog order; tombstoned ones
// are dropped. User-authored entries follow in their stored order. Ids
// are unique in the result as long as they were unique in the inputs.
func Merge(catalog []domain.Technology, state StoredState) []domain.Technology {
	overrides := make(map[int64]Override, len(state.Overrides))
	for _, ov := range state.Overrides {
		overrides[ov.ID] = ov
	}

	working := make([]domain.Technology, 0, len(catalog)+len(state.Custom))
	for _, item := range catalog {
		ov, ok := overrides[item.ID]
		if ok && ov.Deleted {
			continue
		}

		merged := item.Clone()
		if !ok {
			// Untouched catalog entry: no deadline until the user
			// sets one.
			merged.Deadline = nil
			working = append(working, merged)
			continue
		}

		if ov.Status != "" {
			merged.Status = ov.Status
		}
		merged.Notes = ov.Notes
		merged.Resources = ov.Resources
		merged.Deadline = ov.Deadline
		merged.Custom = ov.Custom
		if !ov.UpdatedAt.IsZero() {
			merged.UpdatedAt = ov.UpdatedAt
		}
		working = append(working, merged.Clone())
	}

	for _, custom := range state.Custom {
		working = append(working, custom.Clone())
	}
	return working
}

// Split is the inverse of Merge and the sole writer path: it turns the
// working set back into the storable state.
//
// A catalog-derived entry is emitted only when it differs from its
// catalog default in a user-visible way; entries that revert to the
// default are pruned, keeping storage proportional to actual activity.
// User-authored entries are emitted in full. Splitting an unchanged
// working set twice yields identical output.
func Split(working []domain.Technology, catalog []domain.Technology, deleted map[int64]time.Time) StoredState {
	catalogByID := make(map[int64]domain.Technology, len(catalog))
	for _, item := range catalog {
		catalogByID[item.ID] = item
	}

	var state StoredState
	for _, tech := range working {
		base, ok := catalogByID[tech.ID]
		if !ok {
			state.Custom = append(state.Custom, tech.Clone())
			continue
		}
		if !differsFromCatalog(tech, base) {
			continue
		}
		state.Overrides = append(state.Overrides, Override{
			ID:        tech.ID,
			Status:    tech.Status,
			Notes:     tech.Notes,
			Resources: cloneResources(tech.Resources),
			Deadline:  cloneTime(tech.Deadline),
			UpdatedAt: tech.UpdatedAt,
			Custom:    tech.Custom,
		})
	}

	// Tombstones last, in id order, so output is deterministic.
	ids := make([]int64, 0, len(deleted))
	for id := range deleted {
		if _, ok := catalogByID[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		state.Overrides = append(state.Overrides, Override{
			ID:        id,
			Deleted:   true,
			UpdatedAt: deleted[id],
		})
	}

	return state
}

// DeletedIDs extracts the tombstones of a stored state.
func DeletedIDs(state StoredState) map[int64]time.Time {
	deleted := make(map[int64]time.Time)
	for _, ov := range state.Overrides {
		if ov.Deleted {
			deleted[ov.ID] = ov.UpdatedAt
		}
	}
	return deleted
}

// differsFromCatalog reports whether a working-set entry carries any
// user-visible deviation from its catalog default.
func differsFromCatalog(tech, base domain.Technology) bool {
	return tech.Status != base.Status ||
		tech.Notes != base.Notes ||
		!resourcesEqual(tech.Resources, base.Resources) ||
		tech.Deadline != nil ||
		!tech.Custom.Zero()
}

func resourcesEqual(a, b []domain.Resource) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneResources(resources []domain.Resource) []domain.Resource {
	if resources == nil {
		return nil
	}
	out := make([]domain.Resource, len(resources))
	copy(out, resources)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
