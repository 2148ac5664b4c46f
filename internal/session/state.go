package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kimberlykao/gifforge/internal/convcache"
	"github.com/kimberlykao/gifforge/internal/converter"
	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/mediatypes"
	"github.com/kimberlykao/gifforge/internal/settings"
)

// ErrTooManyFiles is returned by AddFile when the session is at its file
// limit.
var ErrTooManyFiles = errors.New("session file limit reached")

// UploadedFile is one file the user uploaded into a session.
type UploadedFile struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Size       int64                `json:"size"`
	Kind       mediatypes.Kind      `json:"kind"`
	Path       string               `json:"-"`
	UploadedAt time.Time            `json:"uploaded_at"`
	Info       *converter.MediaInfo `json:"info,omitempty"`
}

// Export is the result of one ZIP assembly, kept so the archive can be
// downloaded after the summary response.
type Export struct {
	ID        string
	CreatedAt time.Time
	Archive   []byte
	Included  []string
	Failed    map[string]string
}

// NewExport stamps a fresh archive with a download identity.
func NewExport(archive []byte, included []string, failed map[string]string) *Export {
	return &Export{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Archive:   archive,
		Included:  included,
		Failed:    failed,
	}
}

// State is the complete working state of one session: uploaded files in
// upload order, the settings resolver, the conversion cache, and the last
// ZIP export. All mutators go through the state's lock. Settings
// mutations purge cached conversions for exactly the files whose
// effective settings changed, which keeps the cache inside the session's
// working set without ever serving stale output.
type State struct {
	Token string

	mu         sync.Mutex
	dir        string
	files      []*UploadedFile
	byID       map[string]*UploadedFile
	resolver   *settings.Resolver
	cache      *convcache.Cache
	lastExport *Export
	lastSeen   time.Time
	authed     bool
	maxFiles   int
}

func newState(token, dir string, maxFiles int, authed bool) *State {
	return &State{
		Token:    token,
		dir:      dir,
		byID:     make(map[string]*UploadedFile),
		resolver: settings.NewResolver(settings.Defaults()),
		cache:    convcache.New(),
		lastSeen: time.Now(),
		authed:   authed,
		maxFiles: maxFiles,
	}
}

// Dir returns the session's working directory.
func (s *State) Dir() string { return s.dir }

// UploadsDir is where uploaded originals live.
func (s *State) UploadsDir() string { return filepath.Join(s.dir, "uploads") }

// ScratchDir hosts per-conversion working directories.
func (s *State) ScratchDir() string { return filepath.Join(s.dir, "scratch") }

// ThumbsDir holds generated thumbnails.
func (s *State) ThumbsDir() string { return filepath.Join(s.dir, "thumbs") }

// Touch refreshes the session's sliding expiry.
func (s *State) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the session's last request.
func (s *State) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Authenticated reports whether the session passed the passphrase gate.
func (s *State) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

// SetAuthenticated marks the session's gate status.
func (s *State) SetAuthenticated(v bool) {
	s.mu.Lock()
	s.authed = v
	s.mu.Unlock()
}

// Files returns the session's files in upload order.
func (s *State) Files() []*UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*UploadedFile, len(s.files))
	copy(out, s.files)
	return out
}

// File looks up one file by ID.
func (s *State) File(id string) (*UploadedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[id]
	return f, ok
}

// FileCount returns the number of uploaded files.
func (s *State) FileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// UploadBytes returns the total size of the session's uploads.
func (s *State) UploadBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, f := range s.files {
		total += f.Size
	}
	return total
}

// AddFile records an upload. Re-uploading a file with the same identity
// replaces the existing entry in place and keeps its per-file settings
// and cached conversions.
func (s *State) AddFile(f *UploadedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[f.ID]; ok {
		*existing = *f
		return nil
	}
	if s.maxFiles > 0 && len(s.files) >= s.maxFiles {
		return ErrTooManyFiles
	}
	s.files = append(s.files, f)
	s.byID[f.ID] = f
	return nil
}

// RemoveFile drops a file and everything derived from it: its override
// record, its cached conversions, its thumbnail, and its bytes on disk.
func (s *State) RemoveFile(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	for i, other := range s.files {
		if other.ID == id {
			s.files = append(s.files[:i], s.files[i+1:]...)
			break
		}
	}
	s.resolver.Forget(id)
	s.cache.InvalidateFile(id)

	if f.Path != "" {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			logging.Warn("failed to remove uploaded file %s: %v", f.Path, err)
		}
	}
	thumb := filepath.Join(s.ThumbsDir(), id+".jpg")
	if err := os.Remove(thumb); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove thumbnail %s: %v", thumb, err)
	}
	return true
}

// GlobalSettings returns the session's global settings record.
func (s *State) GlobalSettings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Global()
}

// EffectiveSettings resolves the settings a conversion of the file would
// use right now.
func (s *State) EffectiveSettings(id string) settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Resolve(id)
}

// OverrideFor returns the file's sparse override record, if any.
func (s *State) OverrideFor(id string) (settings.Override, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.OverrideFor(id)
}

// UpdateGlobal replaces the global settings record and purges cached
// conversions for every file whose effective settings changed. Files
// fully pinned by an override keep their cache entries.
func (s *State) UpdateGlobal(g settings.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateChanged(func() { s.resolver.SetGlobal(g) }, s.allIDs())
}

// UpdateOverride merges a sparse settings patch into the file's override
// record and purges the file's cached conversions if its effective
// settings changed.
func (s *State) UpdateOverride(id string, patch settings.Override) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateChanged(func() { s.resolver.SetOverride(id, patch) }, []string{id})
}

// ResetOverride removes the file's override record so it follows the
// global settings again. Reports whether a record existed.
func (s *State) ResetOverride(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var existed bool
	s.invalidateChanged(func() { existed = s.resolver.ClearOverride(id) }, []string{id})
	return existed
}

// BroadcastFrom copies the source file's effective settings onto every
// other file in the session and purges cached conversions for the files
// whose effective settings actually changed.
func (s *State) BroadcastFrom(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	targets := s.allIDs()
	s.invalidateChanged(func() { s.resolver.Broadcast(sourceID, targets) }, targets)
}

// BroadcastTo copies the source file's effective settings onto the given
// target files only. The source itself is skipped if listed.
func (s *State) BroadcastTo(sourceID string, targetIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateChanged(func() { s.resolver.Broadcast(sourceID, targetIDs) }, targetIDs)
}

// allIDs returns every file ID. Callers hold the lock.
func (s *State) allIDs() []string {
	ids := make([]string, len(s.files))
	for i, f := range s.files {
		ids[i] = f.ID
	}
	return ids
}

// invalidateChanged applies a settings mutation, then purges cached
// conversions for each candidate file whose effective settings differ
// from before. Callers hold the lock.
func (s *State) invalidateChanged(mutate func(), candidates []string) {
	before := make(map[string]settings.Settings, len(candidates))
	for _, id := range candidates {
		before[id] = s.resolver.Resolve(id)
	}
	mutate()
	for _, id := range candidates {
		if s.resolver.Resolve(id) != before[id] {
			if n := s.cache.InvalidateFile(id); n > 0 {
				logging.Debug("Settings change invalidated %d cached conversion(s) for %s", n, id)
			}
		}
	}
}

// Cache returns the session's conversion cache. Conversions computed
// through the cache are serialized per session.
func (s *State) Cache() *convcache.Cache {
	return s.cache
}

// SetExport replaces the session's last ZIP export.
func (s *State) SetExport(e *Export) {
	s.mu.Lock()
	s.lastExport = e
	s.mu.Unlock()
}

// LastExport returns the most recent ZIP export, if any.
func (s *State) LastExport() (*Export, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastExport == nil {
		return nil, false
	}
	return s.lastExport, true
}

// Close drops the session's in-memory state and removes its working
// directory.
func (s *State) Close() {
	s.mu.Lock()
	dir := s.dir
	s.files = nil
	s.byID = make(map[string]*UploadedFile)
	s.lastExport = nil
	s.mu.Unlock()

	s.cache.Clear()
	if dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			logging.Warn("failed to remove session directory %s: %v", dir, err)
		}
	}
}
