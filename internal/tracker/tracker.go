package tracker

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"techtrack/internal/domain"
	"techtrack/internal/identity"
	"techtrack/internal/kvstore"
	"techtrack/internal/logger"
	"techtrack/internal/payload"
)

// Tracker owns the in-memory working set for one user and is the only
// component that reads or writes the persisted override document.
//
// Every mutating operation applies to the working set, stamps updatedAt,
// then splits and persists exactly once. Batch operations (bulk status,
// import) coalesce into a single write so other contexts observe one
// consistent change. Cross-context consistency is eventual: concurrent
// writers are resolved last-write-wins at the store, no field merge is
// attempted.
type Tracker struct {
	mu      sync.RWMutex
	store   kvstore.Store
	log     logger.Logger
	user    identity.User
	now     func() time.Time
	catalog []domain.Technology
	baseIDs map[int64]domain.Technology

	working []domain.Technology
	deleted map[int64]time.Time
	lastID  int64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a tracker over the given catalog and store. Call Load
// before serving reads.
func New(store kvstore.Store, log logger.Logger, user identity.User, catalog []domain.Technology, opts ...Option) *Tracker {
	baseIDs := make(map[int64]domain.Technology, len(catalog))
	for _, item := range catalog {
		baseIDs[item.ID] = item
	}

	t := &Tracker{
		store:   store,
		log:     log,
		user:    user,
		now:     time.Now,
		catalog: catalog,
		baseIDs: baseIDs,
		deleted: make(map[int64]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// User returns the session owner.
func (t *Tracker) User() identity.User {
	return t.user
}

// StorageKey returns the store key holding this tracker's document,
// used to wire change watchers.
func (t *Tracker) StorageKey() string {
	return kvstore.UserKey(t.user.Name, kvstore.KeyTechnologies)
}

// Load reads the stored overrides and materializes the working set.
// An ephemeral session never loads: its working set stays empty.
func (t *Tracker) Load(ctx context.Context) error {
	if t.user.Ephemeral {
		t.log.Info("ephemeral session, working set disabled",
			logger.String("user", t.user.Name))
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reloadLocked(ctx)
}

// Refresh re-reads the stored state and re-merges, discarding in-memory
// state. Called when another context changed the store.
func (t *Tracker) Refresh(ctx context.Context) error {
	if t.user.Ephemeral {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reloadLocked(ctx)
}

func (t *Tracker) reloadLocked(ctx context.Context) error {
	var state StoredState
	ok, err := kvstore.LoadJSON(ctx, t.store, t.StorageKey(), &state)
	if err != nil {
		return fmt.Errorf("failed to load stored state: %w", err)
	}
	if !ok {
		state = StoredState{}
	}

	t.deleted = DeletedIDs(state)
	t.working = Merge(t.catalog, state)
	t.log.Debug("working set materialized",
		logger.String("user", t.user.Name),
		logger.Int("technologies", len(t.working)),
		logger.Int("overrides", len(state.Overrides)),
		logger.Int("custom", len(state.Custom)))
	return nil
}

// persistLocked is the single writer path: split then one store write.
// On failure the in-memory state is kept and the error is soft
// (ErrPersist) so callers can warn and retry.
func (t *Tracker) persistLocked(ctx context.Context) error {
	state := Split(t.working, t.catalog, t.deleted)
	if err := kvstore.SaveJSON(ctx, t.store, t.StorageKey(), state); err != nil {
		t.log.Warn("failed to persist working set",
			logger.String("user", t.user.Name),
			logger.Error(err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Read side
// ─────────────────────────────────────────────────────────────────

// Technologies returns a copy of the working set in its canonical order:
// catalog-derived entries first, user-authored after.
func (t *Tracker) Technologies() []domain.Technology {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.Technology, 0, len(t.working))
	for _, tech := range t.working {
		out = append(out, tech.Clone())
	}
	return out
}

// Get returns one technology by id.
func (t *Tracker) Get(id int64) (domain.Technology, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := t.indexLocked(id)
	if idx < 0 {
		return domain.Technology{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return t.working[idx].Clone(), nil
}

// Search filters the working set by status and a case-insensitive query
// over title, description, notes and category. Empty arguments match
// everything.
func (t *Tracker) Search(query string, status domain.Status) []domain.Technology {
	query = strings.ToLower(strings.TrimSpace(query))

	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []domain.Technology
	for _, tech := range t.working {
		if status != "" && tech.Status != status {
			continue
		}
		if query != "" && !matchesQuery(tech, query) {
			continue
		}
		out = append(out, tech.Clone())
	}
	return out
}

func matchesQuery(tech domain.Technology, query string) bool {
	return strings.Contains(strings.ToLower(tech.Title), query) ||
		strings.Contains(strings.ToLower(tech.Description), query) ||
		strings.Contains(strings.ToLower(tech.Notes), query) ||
		strings.Contains(strings.ToLower(string(tech.Category)), query)
}

// Progress returns the percentage of completed technologies, rounded.
func (t *Tracker) Progress() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.working) == 0 {
		return 0
	}
	completed := 0
	for _, tech := range t.working {
		if tech.Status == domain.StatusCompleted {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(t.working)) * 100))
}

// CategoryStat summarizes one category of the working set.
type CategoryStat struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// CategoryStats returns per-category totals for display.
func (t *Tracker) CategoryStats() map[domain.Category]CategoryStat {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := make(map[domain.Category]CategoryStat)
	for _, tech := range t.working {
		s := stats[tech.Category]
		s.Total++
		if tech.Status == domain.StatusCompleted {
			s.Completed++
		}
		stats[tech.Category] = s
	}
	return stats
}

// ─────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────

// mutate applies fn to the technology with the given id, stamps
// updatedAt and persists once.
func (t *Tracker) mutate(ctx context.Context, id int64, fn func(*domain.Technology)) (domain.Technology, error) {
	if t.user.Ephemeral {
		return domain.Technology{}, ErrReadOnly
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexLocked(id)
	if idx < 0 {
		return domain.Technology{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	fn(&t.working[idx])
	t.working[idx].UpdatedAt = t.now()

	err := t.persistLocked(ctx)
	return t.working[idx].Clone(), err
}

// SetStatus updates the study status of one technology.
func (t *Tracker) SetStatus(ctx context.Context, id int64, status domain.Status) (domain.Technology, error) {
	if !status.Valid() {
		return domain.Technology{}, fmt.Errorf("%w: status %q", ErrInvalid, status)
	}
	return t.mutate(ctx, id, func(tech *domain.Technology) {
		tech.Status = status
	})
}

// SetNotes replaces the notes of one technology. No length limit is
// enforced at this layer.
func (t *Tracker) SetNotes(ctx context.Context, id int64, notes string) (domain.Technology, error) {
	return t.mutate(ctx, id, func(tech *domain.Technology) {
		tech.Notes = notes
	})
}

// SetResources replaces the full resource list of one technology.
// Per-resource validation happens only on import.
func (t *Tracker) SetResources(ctx context.Context, id int64, resources []domain.Resource) (domain.Technology, error) {
	return t.mutate(ctx, id, func(tech *domain.Technology) {
		tech.Resources = cloneResources(resources)
	})
}

// SetDeadline sets or clears (nil) the deadline of one technology and
// keeps the deadline provenance flags in sync.
func (t *Tracker) SetDeadline(ctx context.Context, id int64, deadline *time.Time) (domain.Technology, error) {
	return t.mutate(ctx, id, func(tech *domain.Technology) {
		tech.Deadline = cloneTime(deadline)
		if deadline != nil {
			now := t.now()
			tech.Custom.HasDeadline = true
			tech.Custom.DeadlineSetAt = &now
		} else {
			tech.Custom.HasDeadline = false
			tech.Custom.DeadlineSetAt = nil
		}
	})
}

// BulkSetStatus applies one status to every given id as a single
// persisted transaction: one write, one change notification, so other
// contexts see one consistent change instead of N flickers. Any unknown
// id rejects the whole batch.
func (t *Tracker) BulkSetStatus(ctx context.Context, ids []int64, status domain.Status) (int, error) {
	if t.user.Ephemeral {
		return 0, ErrReadOnly
	}
	if !status.Valid() {
		return 0, fmt.Errorf("%w: status %q", ErrInvalid, status)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	indexes := make([]int, 0, len(ids))
	for _, id := range ids {
		idx := t.indexLocked(id)
		if idx < 0 {
			return 0, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		indexes = append(indexes, idx)
	}

	now := t.now()
	for _, idx := range indexes {
		t.working[idx].Status = status
		t.working[idx].UpdatedAt = now
	}

	if err := t.persistLocked(ctx); err != nil {
		return len(indexes), err
	}
	return len(indexes), nil
}

// MarkAllCompleted sets every technology to completed in one write.
func (t *Tracker) MarkAllCompleted(ctx context.Context) (int, error) {
	return t.BulkSetStatus(ctx, t.allIDs(), domain.StatusCompleted)
}

// ResetAllStatuses sets every technology back to not-started in one
// write.
func (t *Tracker) ResetAllStatuses(ctx context.Context) (int, error) {
	return t.BulkSetStatus(ctx, t.allIDs(), domain.StatusNotStarted)
}

// AddCustomInput carries the user-supplied fields of a new technology.
type AddCustomInput struct {
	Title       string
	Description string
	Category    domain.Category
	Difficulty  domain.Difficulty
	Status      domain.Status
	Notes       string
	Resources   []domain.Resource
	Deadline    *time.Time
}

// AddCustom appends a fully user-authored technology with a fresh
// monotonic id and sensible defaults.
func (t *Tracker) AddCustom(ctx context.Context, input AddCustomInput) (domain.Technology, error) {
	if t.user.Ephemeral {
		return domain.Technology{}, ErrReadOnly
	}
	if strings.TrimSpace(input.Title) == "" {
		return domain.Technology{}, fmt.Errorf("%w: title must not be empty", ErrInvalid)
	}

	if input.Category == "" {
		input.Category = domain.CategoryOther
	}
	if input.Difficulty == "" {
		input.Difficulty = domain.DifficultyBeginner
	}
	if input.Status == "" {
		input.Status = domain.StatusNotStarted
	}
	if !input.Category.Valid() {
		return domain.Technology{}, fmt.Errorf("%w: category %q", ErrInvalid, input.Category)
	}
	if !input.Difficulty.Valid() {
		return domain.Technology{}, fmt.Errorf("%w: difficulty %q", ErrInvalid, input.Difficulty)
	}
	if !input.Status.Valid() {
		return domain.Technology{}, fmt.Errorf("%w: status %q", ErrInvalid, input.Status)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	tech := domain.Technology{
		ID:          t.nextIDLocked(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Category:    input.Category,
		Difficulty:  input.Difficulty,
		Status:      input.Status,
		Notes:       input.Notes,
		Resources:   cloneResources(input.Resources),
		Deadline:    cloneTime(input.Deadline),
		CreatedAt:   now,
		UpdatedAt:   now,
		Custom:      domain.CustomData{IsCustom: true},
	}
	if tech.Deadline != nil {
		tech.Custom.HasDeadline = true
		tech.Custom.DeadlineSetAt = &now
	}

	t.working = append(t.working, tech)
	err := t.persistLocked(ctx)
	return tech.Clone(), err
}

// AddFromCatalog copies a browsed catalog entry into the working set.
// Adding an id that is already present is idempotent: the existing entry
// is returned unchanged and nothing is persisted.
func (t *Tracker) AddFromCatalog(ctx context.Context, tech domain.Technology) (domain.Technology, bool, error) {
	if t.user.Ephemeral {
		return domain.Technology{}, false, ErrReadOnly
	}
	if tech.ID <= 0 || strings.TrimSpace(tech.Title) == "" {
		return domain.Technology{}, false, fmt.Errorf("%w: catalog entry needs an id and a title", ErrInvalid)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if idx := t.indexLocked(tech.ID); idx >= 0 {
		return t.working[idx].Clone(), false, nil
	}

	now := t.now()
	added := tech.Clone()
	added.Status = domain.StatusNotStarted
	added.Notes = ""
	added.Deadline = nil
	added.CreatedAt = now
	added.UpdatedAt = now
	added.Custom = domain.CustomData{AddedFromAPI: true}

	// Re-adding a previously deleted catalog entry lifts its tombstone,
	// otherwise the next re-merge would hide it again.
	delete(t.deleted, added.ID)

	t.working = append(t.working, added)
	err := t.persistLocked(ctx)
	return added.Clone(), true, err
}

// Patch is a shallow merge applied by EditCustom; nil fields are left
// untouched.
type Patch struct {
	Title       *string
	Description *string
	Category    *domain.Category
	Difficulty  *domain.Difficulty
	Status      *domain.Status
	Notes       *string
	Resources   *[]domain.Resource
}

// EditCustom shallow-merges a patch into a user-authored technology.
// Catalog-derived entries are rejected with ErrNotCustom: the permission
// check lives here, not in the caller.
func (t *Tracker) EditCustom(ctx context.Context, id int64, patch Patch) (domain.Technology, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.Technology{}, fmt.Errorf("%w: title must not be empty", ErrInvalid)
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return domain.Technology{}, fmt.Errorf("%w: category %q", ErrInvalid, *patch.Category)
	}
	if patch.Difficulty != nil && !patch.Difficulty.Valid() {
		return domain.Technology{}, fmt.Errorf("%w: difficulty %q", ErrInvalid, *patch.Difficulty)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Technology{}, fmt.Errorf("%w: status %q", ErrInvalid, *patch.Status)
	}

	if t.user.Ephemeral {
		return domain.Technology{}, ErrReadOnly
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexLocked(id)
	if idx < 0 {
		return domain.Technology{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if !t.working[idx].Custom.IsCustom {
		return domain.Technology{}, fmt.Errorf("%w: id %d", ErrNotCustom, id)
	}

	tech := &t.working[idx]
	if patch.Title != nil {
		tech.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		tech.Description = *patch.Description
	}
	if patch.Category != nil {
		tech.Category = *patch.Category
	}
	if patch.Difficulty != nil {
		tech.Difficulty = *patch.Difficulty
	}
	if patch.Status != nil {
		tech.Status = *patch.Status
	}
	if patch.Notes != nil {
		tech.Notes = *patch.Notes
	}
	if patch.Resources != nil {
		tech.Resources = cloneResources(*patch.Resources)
	}

	now := t.now()
	tech.UpdatedAt = now
	tech.Custom.LastModified = &now

	err := t.persistLocked(ctx)
	return tech.Clone(), err
}

// Delete removes a technology from the working set. A user-authored
// entry is gone for good. A catalog-derived entry is tombstoned: the
// hide survives re-merge and restart, and is undone only by
// ClearUserData.
func (t *Tracker) Delete(ctx context.Context, id int64) error {
	if t.user.Ephemeral {
		return ErrReadOnly
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	t.working = append(t.working[:idx], t.working[idx+1:]...)
	if _, fromCatalog := t.baseIDs[id]; fromCatalog {
		t.deleted[id] = t.now()
	}

	return t.persistLocked(ctx)
}

// ImportBatch validates a payload and appends every entry as a
// user-authored technology in one persisted write. The batch is all or
// nothing; ids colliding with the current working set get a fresh id so
// uniqueness always holds.
func (t *Tracker) ImportBatch(ctx context.Context, p payload.Payload) (payload.Stats, error) {
	if t.user.Ephemeral {
		return payload.Stats{}, ErrReadOnly
	}

	stats, err := payload.Validate(p)
	if err != nil {
		return payload.Stats{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	imported := make([]domain.Technology, 0, len(p.Technologies))
	for i, wire := range p.Technologies {
		tech, err := wire.ToDomain(now)
		if err != nil {
			return payload.Stats{}, fmt.Errorf("%w: technology #%d: %v", payload.ErrInvalid, i+1, err)
		}
		tech.UpdatedAt = now
		tech.Custom.IsCustom = true
		tech.Custom.Imported = true
		if tech.Deadline != nil {
			tech.Custom.HasDeadline = true
		}
		// Catalog ids are re-keyed even when the entry is tombstoned
		// and absent from the working set: a user-authored technology
		// carrying a catalog id would be split as an override and lose
		// its immutable fields.
		if _, inCatalog := t.baseIDs[tech.ID]; inCatalog ||
			t.indexLocked(tech.ID) >= 0 || containsID(imported, tech.ID) {
			tech.ID = t.nextIDLocked()
		}
		imported = append(imported, tech)
	}

	t.working = append(t.working, imported...)
	if err := t.persistLocked(ctx); err != nil {
		return stats, err
	}

	t.log.Info("imported technologies",
		logger.String("user", t.user.Name),
		logger.Int("count", len(imported)))
	return stats, nil
}

// ExportAll serializes the full working set with export metadata. The
// result round-trips through ImportBatch.
func (t *Tracker) ExportAll() payload.Payload {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return payload.Export(t.working, t.user.Name, t.now())
}

// ClearUserData removes every stored key of the current user, leaving
// catalog-only defaults. Tombstones go with it, so previously deleted
// catalog entries reappear.
func (t *Tracker) ClearUserData(ctx context.Context) error {
	if t.user.Ephemeral {
		return ErrReadOnly
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	keys, err := t.store.Keys(ctx, kvstore.UserPrefix(t.user.Name))
	if err != nil {
		return fmt.Errorf("failed to enumerate user keys: %w", err)
	}
	for _, key := range keys {
		if err := t.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}

	t.deleted = make(map[int64]time.Time)
	t.working = Merge(t.catalog, StoredState{})
	t.log.Info("cleared user data",
		logger.String("user", t.user.Name),
		logger.Int("keys", len(keys)))
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Internals
// ─────────────────────────────────────────────────────────────────

func (t *Tracker) indexLocked(id int64) int {
	for i := range t.working {
		if t.working[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) allIDs() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int64, 0, len(t.working))
	for _, tech := range t.working {
		ids = append(ids, tech.ID)
	}
	return ids
}

// nextIDLocked returns a time-based id that is monotonic within the
// process and free in the current working set.
func (t *Tracker) nextIDLocked() int64 {
	id := t.now().UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	for t.indexLocked(id) >= 0 {
		id++
	}
	t.lastID = id
	return id
}

func containsID(techs []domain.Technology, id int64) bool {
	for _, tech := range techs {
		if tech.ID == id {
			return true
		}
	}
	return false
}
