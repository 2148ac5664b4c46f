// Package convcache memoizes conversion results within one session.
//
// Results are keyed by a structured composite of file identity and every
// effective setting value, so any settings change produces a different key
// and equality never depends on string formatting. GetOrCompute guarantees
// at most one invocation of the compute function per key; failed computes
// store nothing so the next attempt retries from scratch.
package convcache
