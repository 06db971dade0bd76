package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"techtrack/internal/domain"
	"techtrack/internal/httpserver/deps"
	"techtrack/internal/tracker"
)

// technologyView decorates a technology with its derived deadline
// urgency. The urgency is display state, computed per request, never
// stored.
type technologyView struct {
	domain.Technology
	DeadlineState domain.DeadlineState `json:"deadlineState"`
	DaysRemaining *int                 `json:"daysRemaining,omitempty"`
}

func viewOf(tech domain.Technology, d deps.Deps) technologyView {
	now := d.TimeNow()
	view := technologyView{
		Technology:    tech,
		DeadlineState: domain.ClassifyDeadline(tech.Deadline, now),
	}
	if days, ok := domain.DaysRemaining(tech.Deadline, now); ok {
		view.DaysRemaining = &days
	}
	return view
}

func viewsOf(techs []domain.Technology, d deps.Deps) []technologyView {
	views := make([]technologyView, 0, len(techs))
	for _, tech := range techs {
		views = append(views, viewOf(tech, d))
	}
	return views
}

type listResponse struct {
	Technologies []technologyView `json:"technologies"`
	Count        int              `json:"count"`
}

// ListTechnologies returns the working set, optionally filtered by
// ?q= (text search) and ?status=.
func ListTechnologies(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		status := domain.Status(r.URL.Query().Get("status"))
		if status != "" && !status.Valid() {
			writeError(w, statusError(status))
			return
		}

		var techs []domain.Technology
		if query == "" && status == "" {
			techs = d.Tracker.Technologies()
		} else {
			techs = d.Tracker.Search(query, status)
		}

		writeJSON(w, http.StatusOK, listResponse{
			Technologies: viewsOf(techs, d),
			Count:        len(techs),
		})
	}
}

// GetTechnology returns one technology by id.
func GetTechnology(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		tech, err := d.Tracker.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(tech, d))
	}
}

// ListCatalog returns the immutable catalog for browsing.
func ListCatalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, listResponse{
			Technologies: viewsOf(d.Catalog, d),
			Count:        len(d.Catalog),
		})
	}
}

type statsResponse struct {
	Progress   int                                      `json:"progress"`
	Categories map[domain.Category]tracker.CategoryStat `json:"categories"`
	Deadlines  map[domain.DeadlineState]int             `json:"deadlines"`
}

// GetStats returns the aggregate view of the working set: completion
// percentage, per-category counts and deadline urgency buckets.
func GetStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := d.TimeNow()
		deadlines := make(map[domain.DeadlineState]int)
		for _, tech := range d.Tracker.Technologies() {
			deadlines[domain.ClassifyDeadline(tech.Deadline, now)]++
		}

		writeJSON(w, http.StatusOK, statsResponse{
			Progress:   d.Tracker.Progress(),
			Categories: d.Tracker.CategoryStats(),
			Deadlines:  deadlines,
		})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid technology id: " + raw})
		return 0, false
	}
	return id, true
}
