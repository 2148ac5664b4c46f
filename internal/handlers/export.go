package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/kimberlykao/gifforge/internal/archive"
	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/metrics"
	"github.com/kimberlykao/gifforge/internal/session"
	"github.com/kimberlykao/gifforge/internal/streaming"
)

// exportFailure reports one file an export could not include.
type exportFailure struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// exportResponse summarizes a batch export. Download and ID are empty
// when no file converted successfully and no archive was built.
type exportResponse struct {
	ID          string          `json:"id,omitempty"`
	Included    []string        `json:"included"`
	Failed      []exportFailure `json:"failed"`
	ArchiveSize int             `json:"archive_size,omitempty"`
	Download    string          `json:"download,omitempty"`
}

// ExportAll converts every file in the session under its current
// effective settings, in upload order, and packs the successes into one
// ZIP. A failing file is reported and skipped; it never aborts the
// batch. The archive is retained on the session so the summary and the
// download are separate requests.
func (h *Handlers) ExportAll(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	files := st.Files()
	if len(files) == 0 {
		writeInvalidInput(w, "no files to export")
		return
	}

	if h.mem != nil && h.mem.WaitIfPaused() {
		logging.Debug("Export waited out memory pressure")
	}

	entries := []archive.Entry{}
	included := []string{}
	failures := []exportFailure{}
	failedByName := make(map[string]string)

	for _, f := range files {
		eff := st.EffectiveSettings(f.ID)
		entry, _, err := h.convertCached(r, st, f, eff)
		if err != nil {
			code, _ := classifyConversionError(err)
			logging.Warn("Export skipped %s (%s): %v", f.Name, f.ID, err)
			failures = append(failures, exportFailure{
				ID:      f.ID,
				Name:    f.Name,
				Reason:  code,
				Message: err.Error(),
			})
			failedByName[f.Name] = err.Error()
			metrics.ExportFilesTotal.WithLabelValues("failed").Inc()
			continue
		}
		entries = append(entries, archive.Entry{Name: f.Name, Data: entry.Bytes})
		included = append(included, f.Name)
		metrics.ExportFilesTotal.WithLabelValues("included").Inc()
	}

	resp := exportResponse{Included: included, Failed: failures}

	if len(entries) == 0 {
		metrics.ExportsTotal.WithLabelValues("empty").Inc()
		logging.Warn("Export produced no output: all %d file(s) failed", len(files))
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, resp)
		return
	}

	zipBytes, err := archive.Build(entries)
	if err != nil {
		logging.Error("Failed to assemble export archive: %v", err)
		writeJSONError(w, "failed to assemble archive", http.StatusInternalServerError)
		return
	}

	exp := session.NewExport(zipBytes, included, failedByName)
	st.SetExport(exp)

	if len(failures) == 0 {
		metrics.ExportsTotal.WithLabelValues("complete").Inc()
	} else {
		metrics.ExportsTotal.WithLabelValues("partial").Inc()
	}
	metrics.ExportArchiveBytes.Observe(float64(len(zipBytes)))
	logging.Info("Export %s: %d file(s) in %d byte archive, %d failed",
		exp.ID, len(included), len(zipBytes), len(failures))

	resp.ID = exp.ID
	resp.ArchiveSize = len(zipBytes)
	resp.Download = "/api/export/" + exp.ID
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// DownloadExport streams a retained export archive. Only the most recent
// export is kept; an older job id is a 404.
func (h *Handlers) DownloadExport(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	exp, found := st.LastExport()
	if !found || exp.ID != id {
		writeJSONError(w, "export not found, it may have been replaced by a newer one", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Archive)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.BundleName))
	if err := streaming.StreamWithTimeout(r.Context(), w, bytes.NewReader(exp.Archive), streaming.DefaultTimeoutWriterConfig()); err != nil {
		logging.Warn("Archive download aborted for %s: %v", id, err)
	}
}
