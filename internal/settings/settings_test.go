package settings

import (
	"testing"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestResolveWithoutOverrideTracksGlobal(t *testing.T) {
	t.Parallel()

	r := NewResolver(Defaults())

	// Any sequence of global updates must be reflected immediately for
	// files that have no override.
	updates := []Settings{
		{FrameRate: 12, Width: 640, Dither: DitherNone, Compression: CompressionStrong},
		{FrameRate: 5, Width: 320, Dither: DitherSierra24a, Compression: CompressionAggressive},
		{FrameRate: 20, Width: 1920, Dither: DitherBayer, Compression: CompressionConservative},
	}

	if got := r.Resolve("vid-1"); got != Defaults() {
		t.Errorf("Resolve before any update = %+v, want defaults %+v", got, Defaults())
	}
	for _, s := range updates {
		r.SetGlobal(s)
		if got := r.Resolve("vid-1"); got != s {
			t.Errorf("Resolve after SetGlobal = %+v, want %+v", got, s)
		}
		if got := r.Resolve("never-seen"); got != s {
			t.Errorf("Resolve of unknown id = %+v, want %+v", got, s)
		}
	}
}

func TestResolvePartialOverride(t *testing.T) {
	t.Parallel()

	global := Settings{FrameRate: 10, Width: 800, Dither: DitherBayer, Compression: CompressionBalanced}
	r := NewResolver(global)
	r.SetOverride("vid-1", Override{Width: intPtr(320)})

	want := Settings{FrameRate: 10, Width: 320, Dither: DitherBayer, Compression: CompressionBalanced}
	if got := r.Resolve("vid-1"); got != want {
		t.Errorf("Resolve with width override = %+v, want %+v", got, want)
	}

	// The unset fields keep following the global record.
	global.FrameRate = 15
	global.Dither = DitherNone
	r.SetGlobal(global)

	want = Settings{FrameRate: 15, Width: 320, Dither: DitherNone, Compression: CompressionBalanced}
	if got := r.Resolve("vid-1"); got != want {
		t.Errorf("Resolve after global change = %+v, want %+v", got, want)
	}
}

func TestSetOverrideMergesFieldByField(t *testing.T) {
	t.Parallel()

	r := NewResolver(Defaults())

	r.SetOverride("vid-1", Override{Width: intPtr(640)})
	r.SetOverride("vid-1", Override{FrameRate: intPtr(8)})
	r.SetOverride("vid-1", Override{Width: intPtr(320)}) // last write wins

	got := r.Resolve("vid-1")
	if got.Width != 320 || got.FrameRate != 8 {
		t.Errorf("Resolve = %+v, want width 320 and frame rate 8", got)
	}
	if got.Dither != Defaults().Dither || got.Compression != Defaults().Compression {
		t.Errorf("untouched fields changed: %+v", got)
	}

	o, ok := r.OverrideFor("vid-1")
	if !ok {
		t.Fatal("OverrideFor returned no record")
	}
	if o.Dither != nil || o.Compression != nil {
		t.Errorf("override gained fields that were never set: %+v", o)
	}

	// An all-nil patch must not create a record.
	r.SetOverride("vid-2", Override{})
	if _, ok := r.OverrideFor("vid-2"); ok {
		t.Error("empty patch created an override record")
	}
}

func TestOverrideForReturnsCopy(t *testing.T) {
	t.Parallel()

	r := NewResolver(Defaults())
	r.SetOverride("vid-1", Override{Width: intPtr(640)})

	o, _ := r.OverrideFor("vid-1")
	*o.Width = 9999

	if got := r.Resolve("vid-1").Width; got != 640 {
		t.Errorf("mutating the returned override leaked into the resolver: width = %d", got)
	}
}

func TestClearOverride(t *testing.T) {
	t.Parallel()

	r := NewResolver(Defaults())
	r.SetOverride("vid-1", Override{Width: intPtr(640), Dither: strPtr(DitherNone)})

	if !r.ClearOverride("vid-1") {
		t.Error("ClearOverride = false for existing record")
	}
	if got := r.Resolve("vid-1"); got != Defaults() {
		t.Errorf("Resolve after clear = %+v, want global %+v", got, Defaults())
	}
	if r.ClearOverride("vid-1") {
		t.Error("ClearOverride = true for missing record")
	}
}

func TestBroadcast(t *testing.T) {
	t.Parallel()

	r := NewResolver(Settings{FrameRate: 10, Width: 800, Dither: DitherBayer, Compression: CompressionBalanced})
	r.SetOverride("a", Override{Width: intPtr(320), FrameRate: intPtr(15)})
	r.SetOverride("b", Override{Dither: strPtr(DitherSierra24a)})

	before := r.Resolve("a")
	r.Broadcast("a", []string{"b", "c"})

	if got := r.Resolve("b"); got != before {
		t.Errorf("Resolve(b) after broadcast = %+v, want %+v", got, before)
	}
	if got := r.Resolve("c"); got != before {
		t.Errorf("Resolve(c) after broadcast = %+v, want %+v", got, before)
	}

	// Targets are pinned to the source's settings as they were at broadcast
	// time; a later global change must not move them.
	r.SetGlobal(Settings{FrameRate: 1, Width: 100, Dither: DitherNone, Compression: CompressionAggressive})
	if got := r.Resolve("b"); got != before {
		t.Errorf("Resolve(b) after global change = %+v, want pinned %+v", got, before)
	}

	// The prior override of b is fully replaced, not merged.
	o, ok := r.OverrideFor("b")
	if !ok {
		t.Fatal("broadcast target has no override record")
	}
	if o.Dither == nil || *o.Dither != before.Dither {
		t.Errorf("broadcast target dither = %v, want %q", o.Dither, before.Dither)
	}
}

func TestBroadcastSkipsSource(t *testing.T) {
	t.Parallel()

	r := NewResolver(Defaults())
	r.Broadcast("a", []string{"a", "b"})

	if _, ok := r.OverrideFor("a"); ok {
		t.Error("broadcast created an override for its own source")
	}
	if _, ok := r.OverrideFor("b"); !ok {
		t.Error("broadcast did not reach target b")
	}
}

func TestForget(t *testing.T) {
	t.Parallel()

	r := NewResolver(Defaults())
	r.SetOverride("vid-1", Override{Width: intPtr(640)})
	r.Forget("vid-1")

	if _, ok := r.OverrideFor("vid-1"); ok {
		t.Error("override survived Forget")
	}
}

func TestValidators(t *testing.T) {
	t.Parallel()

	for _, d := range []string{DitherNone, DitherBayer, DitherFloydSteinberg, DitherSierra2, DitherSierra24a} {
		if !ValidDither(d) {
			t.Errorf("ValidDither(%q) = false", d)
		}
	}
	if ValidDither("ordered") || ValidDither("") {
		t.Error("ValidDither accepted an unknown mode")
	}

	for _, c := range []string{CompressionConservative, CompressionBalanced, CompressionStrong, CompressionAggressive} {
		if !ValidCompression(c) {
			t.Errorf("ValidCompression(%q) = false", c)
		}
	}
	if ValidCompression("max") || ValidCompression("") {
		t.Error("ValidCompression accepted an unknown level")
	}
}
