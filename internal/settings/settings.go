package settings

// Dither modes accepted by the transcoder's palette mapper. The UI exposes
// none, bayer, and sierra2_4a; floyd_steinberg and sierra2 are recognized so
// clients that stored them keep working.
const (
	DitherNone           = "none"
	DitherBayer          = "bayer"
	DitherFloydSteinberg = "floyd_steinberg"
	DitherSierra2        = "sierra2"
	DitherSierra24a      = "sierra2_4a"
)

// Compression levels. Each level maps to a palette color budget and an
// optimizer effort, applied by the converter.
const (
	CompressionConservative = "conservative"
	CompressionBalanced     = "balanced"
	CompressionStrong       = "strong"
	CompressionAggressive   = "aggressive"
)

// ValidDither reports whether s names a known dither mode.
func ValidDither(s string) bool {
	switch s {
	case DitherNone, DitherBayer, DitherFloydSteinberg, DitherSierra2, DitherSierra24a:
		return true
	}
	return false
}

// ValidCompression reports whether s names a known compression level.
func ValidCompression(s string) bool {
	switch s {
	case CompressionConservative, CompressionBalanced, CompressionStrong, CompressionAggressive:
		return true
	}
	return false
}

// Settings is one fully populated conversion configuration. A session has
// one global record; Resolve produces one per file.
type Settings struct {
	FrameRate   int    `json:"frame_rate"`
	Width       int    `json:"width"`
	Dither      string `json:"dither"`
	Compression string `json:"compression"`
}

// Defaults returns the settings a fresh session starts with.
func Defaults() Settings {
	return Settings{
		FrameRate:   10,
		Width:       800,
		Dither:      DitherBayer,
		Compression: CompressionBalanced,
	}
}

// Override is a sparse settings patch. Only fields the user explicitly
// changed for a file are non-nil; nil fields fall back to the global record.
type Override struct {
	FrameRate   *int    `json:"frame_rate,omitempty"`
	Width       *int    `json:"width,omitempty"`
	Dither      *string `json:"dither,omitempty"`
	Compression *string `json:"compression,omitempty"`
}

// IsZero reports whether no field of the override is set.
func (o Override) IsZero() bool {
	return o.FrameRate == nil && o.Width == nil && o.Dither == nil && o.Compression == nil
}

// apply resolves the override against a base record. Set fields win,
// unset fields inherit.
func (o Override) apply(base Settings) Settings {
	if o.FrameRate != nil {
		base.FrameRate = *o.FrameRate
	}
	if o.Width != nil {
		base.Width = *o.Width
	}
	if o.Dither != nil {
		base.Dither = *o.Dither
	}
	if o.Compression != nil {
		base.Compression = *o.Compression
	}
	return base
}

// merge copies each set field of patch into o. Last write wins per field.
func (o *Override) merge(patch Override) {
	if patch.FrameRate != nil {
		v := *patch.FrameRate
		o.FrameRate = &v
	}
	if patch.Width != nil {
		v := *patch.Width
		o.Width = &v
	}
	if patch.Dither != nil {
		v := *patch.Dither
		o.Dither = &v
	}
	if patch.Compression != nil {
		v := *patch.Compression
		o.Compression = &v
	}
}

// full converts a resolved record into an override that pins every field.
func full(s Settings) *Override {
	fr, w, d, c := s.FrameRate, s.Width, s.Dither, s.Compression
	return &Override{FrameRate: &fr, Width: &w, Dither: &d, Compression: &c}
}

// Resolver merges the session's global settings with sparse per-file
// overrides. It is a pure key-value resolution layer: Resolve never fails,
// never caches, and has no side effects. Callers validate and clamp values
// before handing them to the resolver.
//
// The resolver is not safe for concurrent use; the owning session
// serializes access.
type Resolver struct {
	global    Settings
	overrides map[string]*Override
}

// NewResolver returns a Resolver with the given global settings and no
// overrides.
func NewResolver(global Settings) *Resolver {
	return &Resolver{
		global:    global,
		overrides: make(map[string]*Override),
	}
}

// Global returns the current global settings.
func (r *Resolver) Global() Settings {
	return r.global
}

// SetGlobal replaces the global settings record.
func (r *Resolver) SetGlobal(s Settings) {
	r.global = s
}

// Resolve returns the effective settings for a file: override fields take
// precedence, everything else inherits from the global record. The result
// is always fully populated and computed fresh on every call, so a global
// change is visible immediately for any file without an explicit override.
func (r *Resolver) Resolve(fileID string) Settings {
	o, ok := r.overrides[fileID]
	if !ok {
		return r.global
	}
	return o.apply(r.global)
}

// OverrideFor returns a copy of the file's override record and whether one
// exists.
func (r *Resolver) OverrideFor(fileID string) (Override, bool) {
	o, ok := r.overrides[fileID]
	if !ok {
		return Override{}, false
	}
	cp := Override{}
	cp.merge(*o)
	return cp, true
}

// SetOverride merges each set field of patch into the file's override
// record, creating the record if needed. An empty patch is a no-op.
func (r *Resolver) SetOverride(fileID string, patch Override) {
	if patch.IsZero() {
		return
	}
	o, ok := r.overrides[fileID]
	if !ok {
		o = &Override{}
		r.overrides[fileID] = o
	}
	o.merge(patch)
}

// ClearOverride removes the file's override record so it tracks the global
// settings again. Returns whether a record existed.
func (r *Resolver) ClearOverride(fileID string) bool {
	_, ok := r.overrides[fileID]
	delete(r.overrides, fileID)
	return ok
}

// Broadcast copies the effective settings of source, resolved at call time,
// into the override record of every target, replacing any existing override
// for those files. After a broadcast every target resolves to what the
// source resolved to at the moment of the call.
func (r *Resolver) Broadcast(sourceID string, targetIDs []string) {
	eff := r.Resolve(sourceID)
	for _, id := range targetIDs {
		if id == sourceID {
			continue
		}
		r.overrides[id] = full(eff)
	}
}

// Forget drops the override entry for a file removed from the session.
func (r *Resolver) Forget(fileID string) {
	delete(r.overrides, fileID)
}
