// Package logging is the leveled logger shared by every gifforge package.
//
// Lines are written through the standard library log package with a
// bracketed level prefix, so output stays grep-friendly: [DEBUG], [INFO],
// [WARN], [ERROR], and [FATAL], the last of which exits the process.
//
// The active level comes from the LOG_LEVEL environment variable, read
// lazily on first use; setting DEBUG=true is honored as a shorthand for
// LOG_LEVEL=debug. SetLevel changes the level at runtime.
package logging
