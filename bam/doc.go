// Package bam decodes uncompressed BAM alignment streams.
//
// A stream is a magic number, a free-text header, a catalog of reference
// sequences, and then length-prefixed alignment records. NewReader consumes
// the header and catalog eagerly; Read and All produce records one at a time
// from a bounded buffer, so files of any size stream in constant memory.
//
// BGZF-compressed files are decompressed before they reach this package; see
// the source package.
//
// The decoder functions DecodeHeader, DecodeReference and DecodeAlignment
// operate on byte slices and report incomplete input with a
// *seqtype.ShortError carrying the number of additional bytes needed.
package bam
