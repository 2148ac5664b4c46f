package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kimberlykao/gifforge/internal/convcache"
	"github.com/kimberlykao/gifforge/internal/converter"
	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/mediatypes"
	"github.com/kimberlykao/gifforge/internal/metrics"
	"github.com/kimberlykao/gifforge/internal/session"
	"github.com/kimberlykao/gifforge/internal/settings"
)

// uploadField is the multipart form field carrying the files.
const uploadField = "files"

// sniffLen is how many leading bytes feed the content sniffer.
const sniffLen = 512

// multipartMemory caps how much of a parsed form stays in memory before
// net/http spills parts to temp files.
const multipartMemory = 32 << 20

// probeTimeout bounds the metadata probe of a freshly stored upload.
const probeTimeout = 15 * time.Second

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// fileResponse is the wire form of one uploaded file.
type fileResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Size        int64                `json:"size"`
	Kind        mediatypes.Kind      `json:"kind"`
	MimeType    string               `json:"mime_type"`
	UploadedAt  time.Time            `json:"uploaded_at"`
	Info        *converter.MediaInfo `json:"info,omitempty"`
	Settings    settings.Settings    `json:"settings"`
	HasOverride bool                 `json:"has_override"`
	Converted   bool                 `json:"converted"`
}

// rejection reports one file the upload endpoint refused.
type rejection struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// fileResponseFor resolves the file's current effective settings and
// whether a conversion for them is already cached.
func (h *Handlers) fileResponseFor(st *session.State, f *session.UploadedFile) fileResponse {
	eff := st.EffectiveSettings(f.ID)
	_, hasOverride := st.OverrideFor(f.ID)
	_, converted := st.Cache().Get(convcache.KeyFor(f.ID, eff))
	return fileResponse{
		ID:          f.ID,
		Name:        f.Name,
		Size:        f.Size,
		Kind:        f.Kind,
		MimeType:    mediatypes.GetMimeType(strings.ToLower(filepath.Ext(f.Name))),
		UploadedAt:  f.UploadedAt,
		Info:        f.Info,
		Settings:    eff,
		HasOverride: hasOverride,
		Converted:   converted,
	}
}

// UploadFiles accepts a multipart batch of video and animation uploads.
// Each file is judged on its own: a format mismatch or the session file
// limit rejects that file and the rest of the batch continues.
func (h *Handlers) UploadFiles(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	if h.mem != nil && h.mem.ShouldThrottle() {
		logging.Warn("Upload rejected: memory usage %.0f%%", h.mem.GetUsage()*100)
		writeJSONError(w, "server is low on memory, retry shortly", http.StatusInsufficientStorage)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg := fmt.Sprintf("upload exceeds the %d MB request limit", h.maxUploadBytes>>20)
			writeJSONCode(w, codeInvalidInput, msg, http.StatusRequestEntityTooLarge)
			return
		}
		writeInvalidInput(w, "malformed multipart upload")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("Failed to drop multipart temp files: %v", err)
		}
	}()

	parts := r.MultipartForm.File[uploadField]
	if len(parts) == 0 {
		writeInvalidInput(w, `multipart field "files" is empty`)
		return
	}

	accepted := []fileResponse{}
	rejected := []rejection{}
	for _, fh := range parts {
		f, err := h.saveUpload(r.Context(), st, fh)
		if err != nil {
			kind := mediatypes.KindForExt(strings.ToLower(filepath.Ext(fh.Filename)))
			metrics.UploadsTotal.WithLabelValues(string(kind), "rejected").Inc()
			logging.Warn("Rejected upload %q: %v", fh.Filename, err)
			rejected = append(rejected, rejection{Name: fh.Filename, Error: err.Error()})
			continue
		}
		metrics.UploadsTotal.WithLabelValues(string(f.Kind), "accepted").Inc()
		metrics.UploadBytesTotal.Add(float64(f.Size))
		logging.Debug("Stored upload %s (%s, %d bytes) as %s", f.Name, f.Kind, f.Size, f.ID)
		accepted = append(accepted, h.fileResponseFor(st, f))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"accepted": accepted,
		"rejected": rejected,
	})
}

// saveUpload validates one multipart file and stores it in the session.
// Re-uploading a file with the same name and size replaces the existing
// record in place.
func (h *Handlers) saveUpload(ctx context.Context, st *session.State, fh *multipart.FileHeader) (*session.UploadedFile, error) {
	name := sanitizeFilename(fh.Filename)

	part, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("unreadable upload: %w", err)
	}
	defer func() {
		if err := part.Close(); err != nil {
			logging.Warn("Failed to close multipart file: %v", err)
		}
	}()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(part, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("unreadable upload: %w", err)
	}

	kind, err := mediatypes.Detect(name, header[:n])
	if err != nil {
		return nil, err
	}

	id := session.FileID(name, fh.Size)
	dest := filepath.Join(st.UploadsDir(), id+strings.ToLower(filepath.Ext(name)))

	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	written, err := io.Copy(out, io.MultiReader(bytes.NewReader(header[:n]), part))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rmErr := os.Remove(dest); rmErr != nil {
			logging.Warn("Failed to remove partial upload %s: %v", dest, rmErr)
		}
		return nil, fmt.Errorf("store upload: %w", err)
	}

	f := &session.UploadedFile{
		ID:         id,
		Name:       name,
		Size:       written,
		Kind:       kind,
		Path:       dest,
		UploadedAt: time.Now(),
	}

	// Metadata probe is best effort; a missing ffprobe must not block
	// the upload.
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	if info, probeErr := h.conv.Probe(probeCtx, dest); probeErr == nil {
		f.Info = info
	} else {
		logging.Debug("Probe failed for %s: %v", name, probeErr)
	}
	cancel()

	if err := st.AddFile(f); err != nil {
		if rmErr := os.Remove(dest); rmErr != nil {
			logging.Warn("Failed to remove rejected upload %s: %v", dest, rmErr)
		}
		return nil, err
	}
	return f, nil
}

// sanitizeFilename strips path components and unsafe characters from a
// client-supplied filename.
func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

// ListUploads returns the session's files in upload order, each with the
// settings a conversion would use right now.
func (h *Handlers) ListUploads(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	files := st.Files()
	resp := make([]fileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, h.fileResponseFor(st, f))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"files": resp,
		"count": len(resp),
	})
}

// DeleteUpload removes a file along with its override, cached
// conversions, stored payload, and thumbnail.
func (h *Handlers) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if !st.RemoveFile(id) {
		writeInvalidInput(w, fmt.Sprintf("unknown file id %q", id))
		return
	}
	logging.Debug("Removed file %s from session", id)
	writeJSONStatus(w, "deleted")
}
