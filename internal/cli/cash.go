package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"tradejournal/internal/journal"
	"tradejournal/internal/pkg/text"
	"tradejournal/internal/position"

	"github.com/google/subcommands"
)

// cashFlags are the cash entry fields shared by cash-add and cash-update.
type cashFlags struct {
	id       string
	account  int64
	at       string
	kind     string
	amount   string
	currency string
	notes    string
}

func (c *cashFlags) register(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Cash transaction ID")
	f.Int64Var(&c.account, "account", 0, "Account ID")
	f.StringVar(&c.at, "at", "", "Time of the entry, RFC 3339")
	f.StringVar(&c.kind, "kind", "", "deposit, withdrawal, dividend, interest or charge")
	f.StringVar(&c.amount, "amount", "", "Amount, always positive")
	f.StringVar(&c.currency, "currency", "", "ISO 4217 currency (default from config)")
	f.StringVar(&c.notes, "notes", "", "Free text notes")
}

func (c *cashFlags) entry() (position.CashTransaction, error) {
	out := position.CashTransaction{
		ID:        c.id,
		AccountID: c.account,
		Currency:  c.currency,
		Notes:     c.notes,
	}
	var err error
	if out.Kind, err = position.ParseCashKind(c.kind); err != nil {
		return out, err
	}
	if strings.TrimSpace(c.at) == "" {
		return out, errors.New("-at is required")
	}
	if out.ExecutedAt, err = time.Parse(time.RFC3339, strings.TrimSpace(c.at)); err != nil {
		return out, fmt.Errorf("invalid -at: %w", err)
	}
	if out.Amount, err = parseDecimal("amount", c.amount); err != nil {
		return out, err
	}
	return out, nil
}

type cashAddCmd struct {
	env *Env
	cashFlags
}

func (*cashAddCmd) Name() string     { return "cash-add" }
func (*cashAddCmd) Synopsis() string { return "record a deposit, withdrawal or income" }
func (*cashAddCmd) Usage() string {
	return `tradejournal cash-add -account <id> -at <time> -kind <kind> -amount <n> [-currency <iso>]
`
}

func (c *cashAddCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *cashAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entry, err := c.entry()
	if err != nil {
		return c.env.usage("%v", err)
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	created, err := a.Journal().RecordCash(ctx, entry)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "recorded %s\n", created.ID)
	return subcommands.ExitSuccess
}

type cashUpdateCmd struct {
	env *Env
	cashFlags
}

func (*cashUpdateCmd) Name() string     { return "cash-update" }
func (*cashUpdateCmd) Synopsis() string { return "replace a cash entry" }
func (*cashUpdateCmd) Usage() string {
	return `tradejournal cash-update -id <id> <same flags as cash-add>
`
}

func (c *cashUpdateCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *cashUpdateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if strings.TrimSpace(c.id) == "" {
		return c.env.usage("-id is required")
	}
	entry, err := c.entry()
	if err != nil {
		return c.env.usage("%v", err)
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	if _, err := a.Journal().UpdateCash(ctx, entry); err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "updated %s\n", entry.ID)
	return subcommands.ExitSuccess
}

type cashDeleteCmd struct {
	env *Env
}

func (*cashDeleteCmd) Name() string     { return "cash-delete" }
func (*cashDeleteCmd) Synopsis() string { return "remove cash entries" }
func (*cashDeleteCmd) Usage() string {
	return `tradejournal cash-delete <id>...
`
}

func (*cashDeleteCmd) SetFlags(*flag.FlagSet) {}

func (c *cashDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return c.env.usage("at least one cash transaction id is required")
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	for _, id := range f.Args() {
		if err := a.Journal().DeleteCash(ctx, id); err != nil {
			return c.env.fail(err)
		}
		fmt.Fprintf(c.env.Out, "deleted %s\n", id)
	}
	return subcommands.ExitSuccess
}

type cashListCmd struct {
	env     *Env
	account int64
	from    string
	to      string
}

func (*cashListCmd) Name() string     { return "cash" }
func (*cashListCmd) Synopsis() string { return "list the cash entries of an account" }
func (*cashListCmd) Usage() string {
	return `tradejournal cash -account <id> [-from YYYY-MM-DD] [-to YYYY-MM-DD]
`
}

func (c *cashListCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "Account ID")
	f.StringVar(&c.from, "from", "", "First day included, YYYY-MM-DD")
	f.StringVar(&c.to, "to", "", "First day excluded, YYYY-MM-DD")
}

func (c *cashListCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q := journal.CashQuery{AccountID: c.account}
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

	entries, err := a.Journal().CashTransactions(ctx, q)
	if err != nil {
		return c.env.fail(err)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID,
			e.ExecutedAt.Format(time.RFC3339),
			e.Kind.String(),
			formatMoney(e.SignedAmount(), e.Currency),
			text.Truncate(e.Notes, notesWidth),
		})
	}
	md := fmt.Sprintf("## Account %d cash entries\n\n", c.account) +
		mdTable([]string{"ID", "At", "Kind", "Amount", "Notes"}, rows)
	if err := c.env.printMarkdown(md); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type cashSnapshotCmd struct {
	env  *Env
	date string
}

func (*cashSnapshotCmd) Name() string     { return "cash-snapshot" }
func (*cashSnapshotCmd) Synopsis() string { return "store today's cash balances" }
func (*cashSnapshotCmd) Usage() string {
	return `tradejournal cash-snapshot [-date YYYY-MM-DD]

  Stores the current balance of every account and currency under the
  given day (default today, UTC). Meant to run from cron once a day;
  running it again for the same day overwrites.
`
}

func (c *cashSnapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Day to store the balances under, YYYY-MM-DD")
}

func (c *cashSnapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day := time.Now().UTC()
	if strings.TrimSpace(c.date) != "" {
		var err error
		if day, err = time.Parse(time.DateOnly, strings.TrimSpace(c.date)); err != nil {
			return c.env.usage("invalid -date %q: %v", c.date, err)
		}
	}
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	n, err := a.Journal().SnapshotCashBalances(ctx, day)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "stored %d balances for %s\n", n, day.Format(time.DateOnly))
	return subcommands.ExitSuccess
}

type cashHistoryCmd struct {
	env     *Env
	account int64
}

func (*cashHistoryCmd) Name() string     { return "cash-history" }
func (*cashHistoryCmd) Synopsis() string { return "show the daily cash balances of an account" }
func (*cashHistoryCmd) Usage() string {
	return `tradejournal cash-history -account <id>
`
}

func (c *cashHistoryCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "Account ID")
}

func (c *cashHistoryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.open()
	if err != nil {
		return c.env.fail(err)
	}
	defer a.Close()

	balances, err := a.Journal().CashBalanceHistory(ctx, c.account)
	if err != nil {
		return c.env.fail(err)
	}
	rows := make([][]string, 0, len(balances))
	for _, b := range balances {
		rows = append(rows, []string{formatDate(b.Date), b.Currency, formatMoney(b.Amount, b.Currency)})
	}
	md := fmt.Sprintf("## Account %d daily cash\n\n", c.account) +
		mdTable([]string{"Date", "Currency", "Balance"}, rows)
	if err := c.env.printMarkdown(md); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}
