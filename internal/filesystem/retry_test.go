package filesystem

import (
	"bytes"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "ESTALE error",
			err:  syscall.ESTALE,
			want: true,
		},
		{
			name: "ENOENT error",
			err:  syscall.ENOENT,
			want: false,
		},
		{
			name: "generic error",
			err:  os.ErrNotExist,
			want: false,
		},
		{
			name: "wrapped ESTALE",
			err:  &os.PathError{Op: "stat", Path: "/work/x", Err: syscall.ESTALE},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStaleError(tt.err); got != tt.want {
				t.Errorf("isStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestVolumeForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{filepath.Join("/work", "sess1", "uploads", "clip.mp4"), "uploads"},
		{filepath.Join("/work", "sess1", "scratch", "palette.png"), "scratch"},
		{filepath.Join("/work", "sess1", "thumbs", "abc.jpg"), "thumbs"},
		{filepath.Join("/work", "sess1", "uploads"), "uploads"},
		{filepath.Join("/work", "sess1"), "work"},
		{"relative/path.gif", "work"},
	}

	for _, tt := range tests {
		if got := VolumeForPath(tt.path); got != tt.want {
			t.Errorf("VolumeForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestStatWithRetrySuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uploads", "file.bin")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry: %v", err)
	}
	if info.Size() != int64(len("payload")) {
		t.Errorf("Size() = %d, want %d", info.Size(), len("payload"))
	}
}

func TestStatWithRetryMissingFileFailsFast(t *testing.T) {
	config := RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
	}

	start := time.Now()
	_, err := StatWithRetry(filepath.Join(t.TempDir(), "missing"), config)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("StatWithRetry succeeded on a missing file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("error = %v, want not-exist", err)
	}
	// ENOENT is not retryable, so no backoff sleeps should have happened.
	if elapsed > 50*time.Millisecond {
		t.Errorf("non-stale error took %v, suggesting retries with backoff", elapsed)
	}
}

func TestOpenWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scratch", "out.gif")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	want := []byte("GIF89a")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := OpenWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry: %v", err)
	}
	defer file.Close()

	got := make([]byte, len(want))
	if _, err := file.Read(got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("read %q, want %q", got, want)
	}
}

func TestReadFileWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gif")
	want := []byte("GIF89a-bytes")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFileWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("ReadFileWithRetry: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadFileWithRetry = %q, want %q", got, want)
	}

	if _, err := ReadFileWithRetry(filepath.Join(dir, "missing"), DefaultRetryConfig()); err == nil {
		t.Error("ReadFileWithRetry succeeded on a missing file")
	}
}

func TestWithRetryRecoversAfterStale(t *testing.T) {
	calls := 0
	err := withRetry("stat", "/work/s/uploads/f", RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	}, func() error {
		calls++
		if calls < 3 {
			return syscall.ESTALE
		}
		return nil
	})

	if err != nil {
		t.Fatalf("withRetry = %v, want success after recovery", err)
	}
	if calls != 3 {
		t.Errorf("attempt ran %d times, want 3", calls)
	}
}

func TestWithRetryExhaustsOnPersistentStale(t *testing.T) {
	calls := 0
	err := withRetry("open", "/work/s/uploads/f", RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, func() error {
		calls++
		return syscall.ESTALE
	})

	if err != syscall.ESTALE {
		t.Errorf("withRetry = %v, want ESTALE", err)
	}
	if calls != 3 { // initial try + 2 retries
		t.Errorf("attempt ran %d times, want 3", calls)
	}
}
