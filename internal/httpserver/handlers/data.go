package handlers

import (
	"net/http"

	"techtrack/internal/httpserver/deps"
	"techtrack/internal/payload"
)

// maxImportBytes caps the import request body. 1000 technologies with
// resources and notes fit comfortably.
const maxImportBytes = 5 << 20

// ExportData handles GET /api/export: the full working set as a
// payload that ImportData accepts back.
func ExportData(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := d.Tracker.ExportAll()
		w.Header().Set("Content-Disposition", `attachment; filename="techtrack-export.json"`)
		writeJSON(w, http.StatusOK, p)
	}
}

type importResponse struct {
	Imported int           `json:"imported"`
	Stats    payload.Stats `json:"stats"`
}

// ImportData handles POST /api/import. The batch is validated as a
// whole before anything is stored; one invalid entry rejects the lot.
func ImportData(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

		var p payload.Payload
		if !decodeBody(w, r, &p) {
			return
		}

		stats, err := d.Tracker.ImportBatch(r.Context(), p)
		if err != nil {
			writeMutation(w, importResponse{Imported: stats.Total, Stats: stats}, err)
			return
		}
		writeJSON(w, http.StatusOK, importResponse{Imported: stats.Total, Stats: stats})
	}
}

// ClearData handles DELETE /api/data: wipes every stored key of the
// current user and resets the working set to catalog defaults.
func ClearData(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Tracker.ClearUserData(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
	}
}
