package domain

import "time"

// Technology is the canonical working-set entity of the tracker.
//
// It is NOT tied to the catalog source, the persistent store or any
// transport. Catalog entries and user overrides are merged into this
// structure.
//
// A Technology is uniquely identified by its ID within a working set.
type Technology struct {
	// ─────────────────────────────
	// Identity & immutable fields
	// (owned by the catalog for catalog-derived entries)
	// ─────────────────────────────

	// ID is the canonical unique identifier.
	ID int64 `json:"id"`

	// Title is a non-empty display name. Example: "React".
	Title string `json:"title"`

	// Description explains what the technology covers.
	Description string `json:"description"`

	Category   Category   `json:"category"`
	Difficulty Difficulty `json:"difficulty"`

	// ─────────────────────────────
	// Mutable, user-owned fields
	// ─────────────────────────────

	Status Status `json:"status"`

	// Notes is free-form user text, empty by default.
	Notes string `json:"notes"`

	// Resources is the ordered list of learning resources.
	Resources []Resource `json:"resources,omitempty"`

	// Deadline is the optional study deadline. Nil means no deadline.
	Deadline *time.Time `json:"deadline,omitempty"`

	// ─────────────────────────────
	// Timestamps & provenance
	// ─────────────────────────────

	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is stamped on every mutation.
	UpdatedAt time.Time `json:"updatedAt"`

	// Custom carries provenance flags distinguishing user-authored
	// entries from catalog-derived ones.
	Custom CustomData `json:"customData,omitzero"`
}

// Resource is a single learning resource attached to a technology.
type Resource struct {
	Title string       `json:"title"`
	URL   string       `json:"url"`
	Type  ResourceType `json:"type"`
}

// CustomData is the closed set of provenance flags, kept as explicit
// optional fields rather than a schemaless map so the Technology type
// stays closed and testable.
type CustomData struct {
	// IsCustom marks a fully user-authored technology. Edit and delete
	// permissions are gated on it.
	IsCustom bool `json:"isCustom,omitempty"`

	// AddedFromAPI marks an entry copied into the working set from a
	// catalog browse rather than authored by hand.
	AddedFromAPI bool `json:"addedFromApi,omitempty"`

	// Imported marks an entry that arrived through a payload import.
	Imported bool `json:"imported,omitempty"`

	// HasDeadline and DeadlineSetAt track deadline observability.
	HasDeadline   bool       `json:"hasDeadline,omitempty"`
	DeadlineSetAt *time.Time `json:"deadlineSetAt,omitempty"`

	// LastModified is stamped by explicit edits of user-authored entries.
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// Zero reports whether no flag is set. A zero CustomData is pruned from
// persisted overrides.
func (c CustomData) Zero() bool {
	return !c.IsCustom && !c.AddedFromAPI && !c.Imported &&
		!c.HasDeadline && c.DeadlineSetAt == nil && c.LastModified == nil
}

// Clone returns a deep copy. Working-set accessors hand out clones so
// callers can never mutate tracker state behind the lock.
func (t Technology) Clone() Technology {
	out := t
	if t.Resources != nil {
		out.Resources = make([]Resource, len(t.Resources))
		copy(out.Resources, t.Resources)
	}
	if t.Deadline != nil {
		d := *t.Deadline
		out.Deadline = &d
	}
	if t.Custom.DeadlineSetAt != nil {
		d := *t.Custom.DeadlineSetAt
		out.Custom.DeadlineSetAt = &d
	}
	if t.Custom.LastModified != nil {
		d := *t.Custom.LastModified
		out.Custom.LastModified = &d
	}
	return out
}

// Status of a technology in the user's study plan.
//
// The mutation API and the import validator share this one canonical
// set, so any status that can be imported can also be set.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusOnHold     Status = "on-hold"
)

// Statuses lists all valid status values in display order.
func Statuses() []Status {
	return []Status{StatusNotStarted, StatusInProgress, StatusCompleted, StatusOnHold}
}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Category groups technologies by area.
type Category string

const (
	CategoryFrontend Category = "frontend"
	CategoryBackend  Category = "backend"
	CategoryDevops   Category = "devops"
	CategoryDatabase Category = "database"
	CategoryMobile   Category = "mobile"
	CategoryOther    Category = "other"
)

func Categories() []Category {
	return []Category{
		CategoryFrontend, CategoryBackend, CategoryDevops,
		CategoryDatabase, CategoryMobile, CategoryOther,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFrontend, CategoryBackend, CategoryDevops,
		CategoryDatabase, CategoryMobile, CategoryOther:
		return true
	}
	return false
}

// Difficulty estimates how hard a technology is to pick up.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

func Difficulties() []Difficulty {
	return []Difficulty{
		DifficultyBeginner, DifficultyIntermediate,
		DifficultyAdvanced, DifficultyExpert,
	}
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert:
		return true
	}
	return false
}

// ResourceType classifies a learning resource.
type ResourceType string

const (
	ResourceDocumentation ResourceType = "documentation"
	ResourceCourse        ResourceType = "course"
	ResourceVideo         ResourceType = "video"
	ResourceBook          ResourceType = "book"
	ResourceArticle       ResourceType = "article"
	ResourceCheatsheet    ResourceType = "cheatsheet"
)

func ResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceDocumentation, ResourceCourse, ResourceVideo,
		ResourceBook, ResourceArticle, ResourceCheatsheet,
	}
}

func (r ResourceType) Valid() bool {
	switch r {
	case ResourceDocumentation, ResourceCourse, ResourceVideo,
		ResourceBook, ResourceArticle, ResourceCheatsheet:
		return true
	}
	return false
}
