// Package seqview reads the sequence file formats of genomics pipelines:
// BAM alignments, FASTA references, and FASTQ reads.
//
// Each format has its own package with a streaming reader built on one
// incremental framed decoder:
//   - [github.com/meigma/seqview/bam]: header, reference catalog, and
//     alignment records, with SAM rendering
//   - [github.com/meigma/seqview/fasta] and [github.com/meigma/seqview/fastq]:
//     text records
//   - [github.com/meigma/seqview/faidx]: offset indexes and random access by
//     record name
//
// This package ties them together: [Open] detects compression and format so
// callers can dispatch to the right reader.
//
// # Quick Start
//
// Stream any supported file:
//
//	in, err := seqview.Open("reads.fq.gz")
//	if err != nil {
//	    return err
//	}
//	defer in.Close()
//	switch in.Format {
//	case seqview.FormatFASTQ:
//	    for rec, err := range fastq.NewReader(in).All() {
//	        ...
//	    }
//	}
//
// Fetch a record by name without scanning the file:
//
//	idx, err := faidx.Build(f, faidx.FASTA)
//	...
//	rec, err := faidx.NewReader(idx, f).Fetch("chr1")
//
// # Caching
//
// Use [github.com/meigma/seqview/cache] to keep built indexes on disk keyed
// by file digest.
package seqview
