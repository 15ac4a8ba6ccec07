// Package models defines the canonical records of the console resources
// and the normalizers that build them from raw API payloads.
//
// Every canonical field has a candidate list of the spellings seen in the
// wild. The canonical JSON name is always the first candidate, so feeding
// a canonical record back through its normalizer returns it unchanged.
// Normalizers never fail; defaults are counted in a normalize.Report.
package models
