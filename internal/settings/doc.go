// Package settings implements per-file conversion settings resolution.
//
// A session carries one global Settings record and a sparse Override per
// file the user has customized. Resolve merges the two with override-wins,
// field-by-field semantics and always returns a fully populated record.
// Broadcast copies one file's effective settings over every other file's
// override, which is how "apply to all" works.
//
// The package is deliberately free of validation: range clamps and enum
// checks happen at the HTTP boundary before the resolver is touched.
package settings
