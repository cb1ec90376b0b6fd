// Package chunk classifies and decodes FTDC chunk documents.
//
// A chunk document carries an embedded timestamp in "_id", a type code in
// "type" and a payload: metadata chunks hold one plain document in "doc",
// metrics chunks hold many samples compressed into the binary "data" field.
//
// Metrics payloads are columnar. The first sample is stored verbatim as the
// reference document; every numeric leaf of the reference becomes a column
// holding that leaf's value across all samples. Integer, time and bool leaves
// use delta-of-delta varints, double leaves use Gorilla XOR encoding, and the
// whole body is compressed with one of the codecs in package compress.
// Non-numeric leaves must stay constant within a chunk; a sample whose shape
// differs from the reference starts a new chunk.
package chunk
