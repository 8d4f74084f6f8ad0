package main

import (
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/sexpr"
)

func main() {
	parseCmd := &cli.Command{
		Name:   "parse",
		Action: parseAct,
		Args:   cli.Args{},
	}

	fmtCmd := &cli.Command{
		Name:   "fmt",
		Action: fmtAct,
		Args:   cli.Args{},
	}

	app := &cli.Command{
		Name:        "emberc",
		Description: "emberc loads and manipulates ember's on-disk IR format",
		Commands: []*cli.Command{
			parseCmd,
			fmtCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

// parseAct reads each argument as an s-expression IR document and
// reports the top-level node's head, for a quick structural sanity
// check before a later stage loads the whole module.
func parseAct(c *cli.Command) (err error) {
	sink := diag.NewSink(diag.Config{})

	for _, a := range c.Args {
		b, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		n, err := sexpr.Parse(b)
		if err != nil {
			emitErr := sink.Emit(diag.Diagnostic{
				Severity: diag.Error,
				Title:    "malformed IR document",
				Message:  err.Error(),
				Range:    diag.SourceRange{Document: a},
			})
			if emitErr != nil {
				return emitErr
			}

			continue
		}

		tlog.V("parse").Printw("parsed document", "file", a, "head", n.Head)
		fmt.Printf("%s: %s(...)\n", a, n.Head)
	}

	if sink.ErrorCount() > 0 {
		os.Exit(sink.ExitCode())
	}

	return nil
}

// fmtAct re-formats each argument's s-expression document through
// sexpr.Parse/Format and writes the canonical form to stdout.
func fmtAct(c *cli.Command) (err error) {
	for _, a := range c.Args {
		b, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		n, err := sexpr.Parse(b)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		tlog.V("fmt").Printw("reformatted document", "file", a)

		os.Stdout.Write(sexpr.Format(nil, n))
		fmt.Println()
	}

	return nil
}
