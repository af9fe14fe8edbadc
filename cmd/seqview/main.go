// Command seqview streams and indexes BAM, FASTA, and FASTQ files.
//
// Usage:
//
//	seqview [-v] view [-H] file.bam
//	seqview [-v] cat file.fa|file.fq
//	seqview [-v] faidx [-o out.fai] file
//	seqview [-v] fetch [-i index] [-cache-dir dir] file|url name|name:start-end...
//
// Compressed input (gzip, BGZF, zstd) is detected for view and cat. faidx and
// fetch need an uncompressed file or an HTTP(S) URL that serves range requests.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

var errUsage = errors.New("usage")

type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("seqview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "log debug events to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: seqview [-v] <view|cat|faidx|fetch> [flags] args...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	a := &app{
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	var err error
	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "view":
		err = a.view(cmdArgs)
	case "cat":
		err = a.cat(cmdArgs)
	case "faidx":
		err = a.faidx(cmdArgs)
	case "fetch":
		err = a.fetch(cmdArgs)
	default:
		fmt.Fprintf(stderr, "seqview: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		fmt.Fprintf(stderr, "seqview: %v\n", err)
		return 1
	}
}

// subcommand returns a flag set for name that reports errors on stderr.
func (a *app) subcommand(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "usage: seqview %s %s\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args and checks for at least minArgs positional arguments.
func parse(fs *flag.FlagSet, args []string, minArgs int) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < minArgs {
		fs.Usage()
		return errUsage
	}
	return nil
}
