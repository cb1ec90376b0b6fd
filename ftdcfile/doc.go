// Package ftdcfile stores chunk documents in rotating diagnostic files and
// selects the files and chunks that cover a time window.
//
// A diagnostic directory holds files named
//
//	metrics.2006-01-02T15-04-05Z[-NNNNN]
//
// after the UTC timestamp of their first chunk; the optional suffix
// disambiguates files started within the same second. Each file is an
// append-only, time-ordered sequence of frames:
//
//	length   uint32  little-endian body length
//	checksum uint64  little-endian xxhash64 of the body
//	body     []byte  binary chunk document (see record.AppendDocument)
package ftdcfile
