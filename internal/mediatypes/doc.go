// Package mediatypes provides shared type definitions and utilities for
// classifying and validating upload payloads.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains primitive types,
// constants, and pure utility functions with no external dependencies beyond
// the standard library.
//
// # Upload Kinds
//
// The package defines a Kind enum for categorizing accepted uploads:
//
//	mediatypes.KindVideo     // Video containers (mp4, mov, m4v, webm)
//	mediatypes.KindAnimation // Animated images (gif, webp)
//	mediatypes.KindOther     // Unrecognized or unsupported files
//
// # Validation
//
// Use Detect to validate an upload before accepting it. Detect checks both
// the extension and the magic bytes at the start of the payload, so a
// renamed executable does not pass as an .mp4:
//
//	kind, err := mediatypes.Detect(filename, header)
//	if errors.Is(err, mediatypes.ErrUnsupported) {
//	    // extension outside the accepted set
//	}
//	if errors.Is(err, mediatypes.ErrMismatch) {
//	    // content disagrees with the extension
//	}
//
// # MIME Types
//
// GetMimeType maps an extension to the Content-Type value served to clients:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	mimeType := mediatypes.GetMimeType(ext) // e.g., "video/mp4"
package mediatypes
