package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"tradejournal/internal/journal"
	"tradejournal/internal/position"
	"tradejournal/internal/store"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

func snapshotRows(snaps []position.DailySnapshot, currency string) [][]string {
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			formatDate(s.Date),
			s.Symbol,
			fmt.Sprint(s.Quantity),
			s.AveragePrice.String(),
			formatMoney(s.Cost, currency),
			formatMoney(s.Commission, currency),
		})
	}
	return rows
}

var snapshotHeaders = []string{"Date", "Symbol", "Qty", "Avg price", "Cost", "Commission"}

type positionsCmd struct {
	env     *Env
	account int64
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "show the open positions of an account" }
func (*positionsCmd) Usage() string {
	return `tradejournal positions -account <id>

  Lists the latest daily position of every instrument still held.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "Account ID")
}

func (c *positionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	snaps, err := a.Journal().OpenPositions(ctx, c.account)
	if err != nil {
		return c.env.fail(err)
	}
	md := fmt.Sprintf("## Account %d open positions\n\n", c.account) +
		mdTable(snapshotHeaders, snapshotRows(snaps, a.Config().Cash.DefaultCurrency))
	if err := c.env.printMarkdown(md); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type snapshotsCmd struct {
	env        *Env
	account    int64
	category   int
	instrument int
}

func (*snapshotsCmd) Name() string     { return "snapshots" }
func (*snapshotsCmd) Synopsis() string { return "show the daily positions of one instrument" }
func (*snapshotsCmd) Usage() string {
	return `tradejournal snapshots -account <id> -category <id> -instrument <id>
`
}

func (c *snapshotsCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "Account ID")
	f.IntVar(&c.category, "category", 0, "Instrument category ID")
	f.IntVar(&c.instrument, "instrument", 0, "Instrument ID")
}

func (c *snapshotsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	scope := store.Scope{AccountID: c.account, CategoryID: c.category, InstrumentID: c.instrument}
	snaps, err := a.Journal().Snapshots(ctx, scope)
	if err != nil {
		return c.env.fail(err)
	}
	md := fmt.Sprintf("## Daily positions %s\n\n", scope) +
		mdTable(snapshotHeaders, snapshotRows(snaps, a.Config().Cash.DefaultCurrency))
	if err := c.env.printMarkdown(md); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type realizedCmd struct {
	env     *Env
	account int64
	symbol  string
	from    string
	to      string
	open    bool
}

func (*realizedCmd) Name() string     { return "realized" }
func (*realizedCmd) Synopsis() string { return "report the realized profit and loss per lot" }
func (*realizedCmd) Usage() string {
	return `tradejournal realized -account <id> [-symbol <sym>] [-from <date>] [-to <date>] [-open]

  Reports every closed lot of the trades executed in [from, to). Lots cut
  by the window are not reported. -open also lists lots still open.
`
}

func (c *realizedCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "Account ID")
	f.StringVar(&c.symbol, "symbol", "", "Only this symbol")
	f.StringVar(&c.from, "from", "", "First day included, YYYY-MM-DD")
	f.StringVar(&c.to, "to", "", "First day excluded, YYYY-MM-DD")
	f.BoolVar(&c.open, "open", false, "Include open lots")
}

func (c *realizedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q := journal.TransactionQuery{AccountID: c.account, Symbol: strings.TrimSpace(c.symbol)}
	var err error
	if q.From, err = parseDay("from", c.from); err != nil {
		return c.env.usage("%v", err)
	}
	if q.To, err = parseDay("to", c.to); err != nil {
		return c.env.usage("%v", err)
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	report := a.Journal().RealizedPnL
	if c.open {
		report = a.Journal().Lots
	}
	lots, err := report(ctx, q)
	if err != nil {
		return c.env.fail(err)
	}

	currency := a.Config().Cash.DefaultCurrency
	rows := make([][]string, 0, len(lots)+1)
	closedNet, closedN := decimal.Zero, 0
	for _, l := range lots {
		status := "open"
		if l.Closed {
			status = "closed"
		}
		rows = append(rows, []string{
			l.Symbol,
			formatDate(l.FirstDate),
			formatDate(l.LastDate),
			status,
			fmt.Sprint(l.NetQuantity),
			formatMoney(l.PnL, currency),
			formatMoney(l.Fees, currency),
			formatMoney(l.NetTotal, currency),
		})
		if l.Closed {
			closedNet = closedNet.Add(l.NetTotal)
			closedN++
		}
	}
	md := fmt.Sprintf("## Account %d realized P&L\n\n", c.account) +
		mdTable([]string{"Symbol", "Opened", "Last trade", "Status", "Net qty", "P&L", "Fees", "Net"}, rows)
	if closedN > 0 {
		md += fmt.Sprintf("\n**Net realized:** %s over %d closed lots\n", formatMoney(closedNet, currency), closedN)
	}
	if err := c.env.printMarkdown(md); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type balanceCmd struct {
	env     *Env
	account int64
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show the cash balances of an account" }
func (*balanceCmd) Usage() string {
	return `tradejournal balance -account <id>
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "Account ID")
}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	balances, err := a.Journal().Balances(ctx, c.account)
	if err != nil {
		return c.env.fail(err)
	}
	currencies := make([]string, 0, len(balances))
	for cur := range balances {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)
	rows := make([][]string, 0, len(currencies))
	for _, cur := range currencies {
		rows = append(rows, []string{cur, formatMoney(balances[cur], cur)})
	}
	md := fmt.Sprintf("## Account %d cash\n\n", c.account) + mdTable([]string{"Currency", "Balance"}, rows)
	if err := c.env.printMarkdown(md); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}
