// Package session holds all per-user state for the lifetime of a browser
// session.
//
// It supports:
//   - Cookie-backed session lookup with sliding expiry
//   - Uploaded file tracking with stable content-derived identities
//   - Per-session conversion settings and the finished-GIF cache
//   - A background janitor that removes expired sessions and their
//     on-disk working directories
//   - An optional passphrase gate backed by bcrypt
//
// Nothing in this package persists across a restart. A session and
// everything it owns, files on disk included, disappears when it
// expires or the server stops.
package session
