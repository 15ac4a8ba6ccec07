// Package normalize turns shape-unknown remote payloads into values a
// canonical record can be built from.
//
// It has three primitives:
//
//   - UnwrapJSON parses values that arrived pre-serialized;
//   - Field resolves a field by an ordered list of candidate spellings;
//   - Flatten reduces the known collection shapes to one flat list.
//
// Nothing in this package returns an error or panics on malformed input.
// Callers substitute defaults and record them in a Report.
package normalize
