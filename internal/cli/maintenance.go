package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"tradejournal/internal/position"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type infoCmd struct {
	env *Env
}

func (*infoCmd) Name() string     { return "info" }
func (*infoCmd) Synopsis() string { return "print the effective configuration" }
func (*infoCmd) Usage() string {
	return `tradejournal info
`
}

func (*infoCmd) SetFlags(*flag.FlagSet) {}

func (c *infoCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()
	a.Summary.Print(c.env.Out)
	return subcommands.ExitSuccess
}

type rebuildCmd struct {
	env *Env
}

func (*rebuildCmd) Name() string     { return "rebuild" }
func (*rebuildCmd) Synopsis() string { return "recompute every daily position from the trades" }
func (*rebuildCmd) Usage() string {
	return `tradejournal rebuild

  Recomputes the stored daily positions of every instrument. Cash balances
  are not touched.
`
}

func (*rebuildCmd) SetFlags(*flag.FlagSet) {}

func (c *rebuildCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	start := time.Now()
	n, err := a.Journal().RebuildAll(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "rebuilt %d instruments in %s\n", n, time.Since(start).Round(time.Millisecond))
	return subcommands.ExitSuccess
}

type quoteCmd struct {
	env *Env
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "show the last traded price of symbols" }
func (*quoteCmd) Usage() string {
	return `tradejournal quote <symbol>...
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return c.env.usage("at least one symbol is required")
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	rows := make([][]string, 0, f.NArg())
	for _, sym := range f.Args() {
		q, err := a.Quotes().Quote(ctx, sym)
		if err != nil {
			return c.env.fail(err)
		}
		rows = append(rows, []string{q.Symbol, q.Price.String(), q.AsOf.Format(time.RFC3339)})
	}
	if err := c.env.printMarkdown(mdTable([]string{"Symbol", "Last", "As of"}, rows)); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type priceCmd struct {
	env        *Env
	category   int
	instrument int
	decode     bool
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "convert between quoted and stored prices" }
func (*priceCmd) Usage() string {
	return `tradejournal price -category <id> -instrument <id> [-decode] <price>

  Encodes a quoted price into its stored value, or decodes a stored value
  with -decode. Only the fractional instrument is transformed.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.category, "category", 0, "Instrument category ID")
	f.IntVar(&c.instrument, "instrument", 0, "Instrument ID")
	f.BoolVar(&c.decode, "decode", false, "Decode a stored value instead")
}

func (c *priceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.env.usage("exactly one price is required")
	}
	v, err := decimal.NewFromString(strings.TrimSpace(f.Arg(0)))
	if err != nil {
		return c.env.usage("invalid price %q: %v", f.Arg(0), err)
	}
	cfg, err := c.env.loadConfig()
	if err != nil {
		return c.env.fail(err)
	}
	engine := position.New(cfg.Instruments)
	out := engine.Encode(v, c.category, c.instrument)
	if c.decode {
		if out, err = engine.Decode(v, c.category, c.instrument); err != nil {
			return c.env.fail(err)
		}
	}
	fmt.Fprintln(c.env.Out, out.String())
	return subcommands.ExitSuccess
}
