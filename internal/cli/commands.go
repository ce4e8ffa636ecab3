package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"chart_backend/internal/feature/series/transport/http/dto"
	seriesusecase "chart_backend/internal/feature/series/usecase"
)

// Commands returns the csvcheck subcommands writing reports to out and diagnostics to errOut.
func Commands(p *Pipeline, out, errOut io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&validateCmd{p: p, out: out, errOut: errOut},
		&symbolsCmd{p: p, out: out, errOut: errOut},
		&seriesCmd{p: p, out: out, errOut: errOut},
	}
}

// validateCmd holds the flags for the 'validate' subcommand.
type validateCmd struct {
	p           *Pipeline
	out, errOut io.Writer

	limit  int
	strict bool
	plain  bool
}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "parse CSV files and report rejected rows" }
func (*validateCmd) Usage() string {
	return `csvcheck validate [-limit <n>] [-strict] [-plain] <file-or-url>...

  Parses each source the way the upload endpoint does and prints a summary
  with the rejected rows.
`
}

func (c *validateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", 20, "maximum number of row errors to list (0 lists all)")
	f.BoolVar(&c.strict, "strict", false, "exit with failure when any row is rejected or a column is missing")
	f.BoolVar(&c.plain, "plain", false, "print raw markdown instead of rendering it")
}

func (c *validateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(c.errOut, "validate: at least one file or URL is required")
		return subcommands.ExitUsageError
	}
	if c.limit < 0 {
		fmt.Fprintln(c.errOut, "validate: -limit must not be negative")
		return subcommands.ExitUsageError
	}

	status := subcommands.ExitSuccess
	for _, src := range f.Args() {
		ds, err := c.p.Run(ctx, src)
		if err != nil {
			fmt.Fprintf(c.errOut, "Error processing %s: %v\n", src, err)
			status = subcommands.ExitFailure
			continue
		}
		printMarkdown(c.out, ValidationMarkdown(ds, c.limit), c.plain)
		if c.strict && (len(ds.Outcome.Errors) > 0 || len(ds.MissingColumns) > 0) {
			status = subcommands.ExitFailure
		}
	}
	return status
}

// symbolsCmd holds the flags for the 'symbols' subcommand.
type symbolsCmd struct {
	p           *Pipeline
	out, errOut io.Writer

	plain bool
}

func (*symbolsCmd) Name() string     { return "symbols" }
func (*symbolsCmd) Synopsis() string { return "list the symbols found in a CSV file" }
func (*symbolsCmd) Usage() string {
	return `csvcheck symbols [-plain] <file-or-url>

  Lists symbols in first-seen order with record counts.
`
}

func (c *symbolsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "print raw markdown instead of rendering it")
}

func (c *symbolsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "symbols: exactly one file or URL is required")
		return subcommands.ExitUsageError
	}
	ds, err := c.p.Run(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintf(c.errOut, "Error processing %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	printMarkdown(c.out, SymbolsMarkdown(ds), c.plain)
	return subcommands.ExitSuccess
}

// seriesCmd holds the flags for the 'series' subcommand.
type seriesCmd struct {
	p           *Pipeline
	out, errOut io.Writer

	symbol string
	view   string
	asJSON bool
	plain  bool
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "print the time-ordered series of one symbol" }
func (*seriesCmd) Usage() string {
	return `csvcheck series [-s <symbol>] [-view candlestick|line] [-json] [-plain] <file-or-url>

  Prints one symbol's records in ascending time order. Without -s the first
  symbol of the file is used.
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "symbol to print (defaults to the first symbol in the file)")
	f.StringVar(&c.view, "view", dto.ViewCandlestick, "JSON point shape: candlestick or line")
	f.BoolVar(&c.asJSON, "json", false, "print chart points as JSON instead of a table")
	f.BoolVar(&c.plain, "plain", false, "print raw markdown instead of rendering it")
}

func (c *seriesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "series: exactly one file or URL is required")
		return subcommands.ExitUsageError
	}
	if c.view != dto.ViewCandlestick && c.view != dto.ViewLine {
		fmt.Fprintln(c.errOut, "series: -view must be candlestick or line")
		return subcommands.ExitUsageError
	}

	ds, err := c.p.Run(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintf(c.errOut, "Error processing %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}

	symbol := c.symbol
	if symbol == "" {
		symbol = ds.DefaultSymbol()
	}
	recs := seriesusecase.BuildIndex(ds.Outcome).Select(symbol)

	if !c.asJSON {
		printMarkdown(c.out, SeriesMarkdown(symbol, recs), c.plain)
		return subcommands.ExitSuccess
	}

	res := dto.SeriesRes{Symbol: symbol, View: c.view, Volumes: dto.VolumeLookup(recs)}
	if c.view == dto.ViewLine {
		res.Points = dto.LinePoints(recs)
	} else {
		res.Points = dto.CandlePoints(recs)
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(c.errOut, "Error encoding series: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
