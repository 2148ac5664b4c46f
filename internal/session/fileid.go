package session

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// FileID derives a stable identity for an uploaded file from its name and
// size. Re-uploading the same file lands on the same ID, so per-file
// settings and cached conversions survive the round trip.
func FileID(name string, size int64) string {
	sum := xxhash.Sum64String(fmt.Sprintf("%s:%d", name, size))
	return fmt.Sprintf("%016x", sum)
}
