// Package unwind expands FTDC chunks into individual sample records.
//
// An Unwinder turns one parent record into zero or more output records, one
// Next call at a time. Two RecordSource implementations drive it:
//
//   - StreamSource pulls parent records from an Upstream. Each parent either
//     is a chunk document or embeds one at a configured field path; every
//     decoded sample is written back into the parent at that path. Records
//     without a usable chunk are passed through unchanged unless
//     excludeMissing is set, and chunks that fail to decode are skipped.
//   - WindowSource unwinds a preloaded list of chunk documents, typically
//     gathered from a diagnostic directory by ftdcfile.Selector, and only
//     emits samples whose "start" lies in a half-open time window. Any
//     malformed chunk or sample is fatal here.
//
// Sources are pull-based and single-goroutine. Every Next call checks the
// context first, so a consumer can cancel between any two samples.
package unwind
