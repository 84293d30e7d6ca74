package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tradejournal/internal/journal"
	"tradejournal/internal/pkg/text"
	"tradejournal/internal/position"

	"github.com/google/subcommands"
)

// txFlags are the transaction fields shared by add and update.
type txFlags struct {
	id           string
	account      int64
	at           string
	side         string
	category     int
	instrument   int
	symbol       string
	quantity     int64
	price        string
	fee          string
	contractMult string
	categoryMult string
	currency     string
	notes        string
}

func (t *txFlags) register(f *flag.FlagSet) {
	f.StringVar(&t.id, "id", "", "Transaction ID")
	f.Int64Var(&t.account, "account", 0, "Account ID")
	f.StringVar(&t.at, "at", "", "Execution time, RFC 3339 (e.g. 2025-03-03T14:30:00-05:00)")
	f.StringVar(&t.side, "side", "", "buy or sell")
	f.IntVar(&t.category, "category", 0, "Instrument category ID")
	f.IntVar(&t.instrument, "instrument", 0, "Instrument ID")
	f.StringVar(&t.symbol, "symbol", "", "Instrument symbol")
	f.Int64Var(&t.quantity, "qty", 0, "Quantity, always positive")
	f.StringVar(&t.price, "price", "0", "Price as quoted (points.32nds for the fractional instrument)")
	f.StringVar(&t.fee, "fee", "0", "Commission paid")
	f.StringVar(&t.contractMult, "contract-multiplier", "", "Contract multiplier (default 1)")
	f.StringVar(&t.categoryMult, "category-multiplier", "", "Category multiplier (default 1)")
	f.StringVar(&t.currency, "currency", "", "ISO 4217 currency (default from config)")
	f.StringVar(&t.notes, "notes", "", "Free text notes")
}

func (t *txFlags) transaction() (position.Transaction, error) {
	tx := position.Transaction{
		ID:           t.id,
		AccountID:    t.account,
		CategoryID:   t.category,
		InstrumentID: t.instrument,
		Symbol:       t.symbol,
		Quantity:     t.quantity,
		Currency:     t.currency,
		Notes:        t.notes,
	}
	var err error
	if tx.Direction, err = position.ParseDirection(t.side); err != nil {
		return tx, err
	}
	if strings.TrimSpace(t.at) == "" {
		return tx, errors.New("-at is required")
	}
	if tx.ExecutedAt, err = time.Parse(time.RFC3339, strings.TrimSpace(t.at)); err != nil {
		return tx, fmt.Errorf("invalid -at: %w", err)
	}
	if tx.Price, err = parseDecimal("price", t.price); err != nil {
		return tx, err
	}
	if tx.Fee, err = parseDecimal("fee", t.fee); err != nil {
		return tx, err
	}
	if tx.ContractMultiplier, err = parseDecimal("contract-multiplier", t.contractMult); err != nil {
		return tx, err
	}
	if tx.CategoryMultiplier, err = parseDecimal("category-multiplier", t.categoryMult); err != nil {
		return tx, err
	}
	return tx, nil
}

type addCmd struct {
	env *Env
	txFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a buy or sell" }
func (*addCmd) Usage() string {
	return `tradejournal add -account <id> -at <time> -side buy|sell -category <id> -instrument <id> -symbol <sym> -qty <n> -price <p> [-fee <f>]

  Records one trade, rebuilds the daily positions of its instrument and
  books its cash impact.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tx, err := c.transaction()
	if err != nil {
		return c.env.usage("%v", err)
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	created, err := a.Journal().Create(ctx, tx)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "recorded %s\n", created.ID)
	return subcommands.ExitSuccess
}

type updateCmd struct {
	env *Env
	txFlags
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "replace a recorded trade" }
func (*updateCmd) Usage() string {
	return `tradejournal update -id <id> <same flags as add>

  Replaces every field of the trade. Positions are rebuilt; cash is
  rebooked unless only descriptive fields changed.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *updateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if strings.TrimSpace(c.id) == "" {
		return c.env.usage("-id is required")
	}
	tx, err := c.transaction()
	if err != nil {
		return c.env.usage("%v", err)
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	if _, err := a.Journal().Update(ctx, tx); err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "updated %s\n", tx.ID)
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	env *Env
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove recorded trades" }
func (*deleteCmd) Usage() string {
	return `tradejournal delete <id>...
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return c.env.usage("at least one transaction id is required")
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	for _, id := range f.Args() {
		if err := a.Journal().Delete(ctx, id); err != nil {
			return c.env.fail(err)
		}
		fmt.Fprintf(c.env.Out, "deleted %s\n", id)
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	env  *Env
	file string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "record trades from a YAML file" }
func (*importCmd) Usage() string {
	return `tradejournal import -f <file.yaml>

  Reads a YAML list of trades ("-" reads stdin) and records them in file
  order. Import stops at the first invalid trade.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "YAML file to import, - for stdin")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var r io.Reader = os.Stdin
	if c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			return c.env.fail(err)
		}
		defer f.Close()
		r = f
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	n, err := a.Journal().Import(ctx, r)
	if err != nil {
		fmt.Fprintf(c.env.Out, "imported %d trades before failing\n", n)
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "imported %d trades\n", n)
	return subcommands.ExitSuccess
}

const notesWidth = 32

type transactionsCmd struct {
	env     *Env
	account int64
	symbol  string
	from    string
	to      string
	openLot bool
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list the trades of an account" }
func (*transactionsCmd) Usage() string {
	return `tradejournal transactions -account <id> [-symbol <sym>] [-from YYYY-MM-DD] [-to YYYY-MM-DD]
tradejournal transactions -account <id> -symbol <sym> -open-lot

  Lists trades in execution order. -open-lot shows only the trades that
  built the current open position in the symbol.
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "Account ID")
	f.StringVar(&c.symbol, "symbol", "", "Only this symbol")
	f.StringVar(&c.from, "from", "", "First day included, YYYY-MM-DD")
	f.StringVar(&c.to, "to", "", "First day excluded, YYYY-MM-DD")
	f.BoolVar(&c.openLot, "open-lot", false, "Only the trades of the open position in -symbol")
}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q := journal.TransactionQuery{AccountID: c.account, Symbol: strings.TrimSpace(c.symbol)}
	var err error
	if q.From, err = parseDay("from", c.from); err != nil {
		return c.env.usage("%v", err)
	}
	if q.To, err = parseDay("to", c.to); err != nil {
		return c.env.usage("%v", err)
	}
	if c.openLot && q.Symbol == "" {
		return c.env.usage("-open-lot requires -symbol")
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	var txs []position.Transaction
	title := fmt.Sprintf("Account %d transactions", c.account)
	if c.openLot {
		txs, err = a.Journal().OpenLotTransactions(ctx, c.account, q.Symbol)
		title = fmt.Sprintf("Account %d open %s lot", c.account, strings.ToUpper(q.Symbol))
	} else {
		txs, err = a.Journal().FindTransactions(ctx, q)
	}
	if err != nil {
		return c.env.fail(err)
	}
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			tx.ID,
			tx.ExecutedAt.Format(time.RFC3339),
			tx.Direction.String(),
			tx.Symbol,
			fmt.Sprint(tx.Quantity),
			tx.Price.String(),
			formatMoney(tx.Fee, tx.Currency),
			text.Truncate(tx.Notes, notesWidth),
		})
	}
	md := "## " + title + "\n\n" +
		mdTable([]string{"ID", "Executed", "Side", "Symbol", "Qty", "Price", "Fee", "Notes"}, rows)
	if err := c.env.printMarkdown(md); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type historyCmd struct {
	env *Env
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show the audit trail of a trade or cash entry" }
func (*historyCmd) Usage() string {
	return `tradejournal history <id>
`
}

func (*historyCmd) SetFlags(*flag.FlagSet) {}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.env.usage("exactly one transaction id is required")
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	events, err := a.Journal().History(ctx, f.Arg(0))
	if err != nil {
		return c.env.fail(err)
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		var currency string
		switch {
		case ev.After != nil:
			currency = ev.After.Currency
		case ev.Before != nil:
			currency = ev.Before.Currency
		case ev.CashAfter != nil:
			currency = ev.CashAfter.Currency
		case ev.CashBefore != nil:
			currency = ev.CashBefore.Currency
		}
		rows = append(rows, []string{
			ev.At.Format(time.RFC3339),
			string(ev.Kind),
			formatMoney(ev.CashDelta, currency),
		})
	}
	md := fmt.Sprintf("## History of %s\n\n", f.Arg(0)) +
		mdTable([]string{"At", "Event", "Cash"}, rows)
	if err := c.env.printMarkdown(md); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}
