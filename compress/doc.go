// Package compress provides the codecs applied to metrics chunk bodies.
//
// A metrics chunk body is produced in two stages: the column encoders in
// internal/encoding exploit the shape of the samples (delta-of-delta integers,
// Gorilla floats), then one of the codecs here shrinks the encoded body as a
// whole. The codec is recorded in the chunk header so readers can pick the
// matching decompressor without configuration.
//
// Supported codecs:
//   - format.CompressionNone: pass-through
//   - format.CompressionZstd: best ratio; pure Go by default, cgo gozstd with the gozstd build tag
//   - format.CompressionS2: balanced speed and ratio
//   - format.CompressionLZ4: fastest decompression
//
// All codecs are stateless values and safe for concurrent use; the zstd and
// lz4 codecs keep warmed-up encoder state in sync.Pools.
package compress
