package main

import (
	"bufio"
	"fmt"
	"iter"

	"github.com/meigma/seqview"
	"github.com/meigma/seqview/bam"
	"github.com/meigma/seqview/fasta"
	"github.com/meigma/seqview/fastq"
	"github.com/meigma/seqview/source"
)

func (a *app) view(args []string) error {
	fs := a.subcommand("view", "[-H] file.bam")
	withHeader := fs.Bool("H", false, "print the header text before records")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	in, err := seqview.Open(fs.Arg(0), source.WithLogger(a.logger), source.WithBGZFWorkers(2))
	if err != nil {
		return err
	}
	defer in.Close()
	if in.Format != seqview.FormatBAM {
		return fmt.Errorf("%s: want bam, got %s", fs.Arg(0), in.Format)
	}

	r, err := bam.NewReader(in, bam.WithLogger(a.logger))
	if err != nil {
		return err
	}
	w := bam.NewWriter(a.stdout, r.References())
	if *withHeader {
		if err := w.WriteHeader(r.Header()); err != nil {
			return err
		}
	}
	for rec, err := range r.All() {
		if err != nil {
			_ = w.Flush()
			return err
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (a *app) cat(args []string) error {
	fs := a.subcommand("cat", "file.fa|file.fq")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	in, err := seqview.Open(fs.Arg(0), source.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer in.Close()

	w := bufio.NewWriter(a.stdout)
	switch in.Format {
	case seqview.FormatFASTA:
		err = emit(w, fasta.NewReader(in, fasta.WithLogger(a.logger)).All())
	case seqview.FormatFASTQ:
		err = emit(w, fastq.NewReader(in, fastq.WithLogger(a.logger)).All())
	default:
		err = fmt.Errorf("%s: cat reads fasta or fastq, got %s", fs.Arg(0), in.Format)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func emit[T fmt.Stringer](w *bufio.Writer, records iter.Seq2[T, error]) error {
	for rec, err := range records {
		if err != nil {
			return err
		}
		if _, err := w.WriteString(rec.String()); err != nil {
			return err
		}
	}
	return nil
}
