// Package encoding implements the column encodings used inside metrics
// chunk bodies.
//
// Every numeric leaf of a sample document becomes one column holding that
// leaf's value across all samples of the chunk:
//
//   - integer-like leaves (ints, times in microseconds, bools as 0/1) use
//     delta-of-delta with zigzag varints, which costs about one byte per
//     sample for counters and regular timestamps;
//   - float leaves use Gorilla XOR compression
//     (https://www.vldb.org/pvldb/vol8/p1816-teller.pdf).
//
// Encoders append into pooled buffers and must be released with Finish.
// Decoders are plain functions that validate their input and report
// errs.ErrTruncated instead of stopping silently, because a short column
// means a corrupted chunk.
package encoding
