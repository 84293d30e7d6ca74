package cli

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	dir    string
	config string
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "journal.yaml")
	body := "app:\n  log_level: error\ndatabase:\n  path: " + filepath.Join(dir, "journal.db") + "\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))
	return &harness{t: t, dir: dir, config: cfg}
}

// run executes one command line and returns its status. Output accumulates.
func (h *harness) run(args ...string) subcommands.ExitStatus {
	h.t.Helper()
	env := NewEnv(&h.out, &h.errOut)
	fs := flag.NewFlagSet("tradejournal", flag.ContinueOnError)
	env.SetFlags(fs)
	c := subcommands.NewCommander(fs, "tradejournal")
	Register(c, env)
	require.NoError(h.t, fs.Parse(append([]string{"-config", h.config, "-plain"}, args...)))
	defer env.Close()
	return c.Execute(context.Background())
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	h.out.Reset()
	status := h.run(args...)
	require.Equalf(h.t, subcommands.ExitSuccess, status, "stderr: %s", h.errOut.String())
	return h.out.String()
}

func trade(side, at, qty, price string) []string {
	return []string{"add", "-account", "1", "-at", at, "-side", side,
		"-category", "1", "-instrument", "11", "-symbol", "aapl",
		"-qty", qty, "-price", price, "-fee", "1"}
}

func TestCLI_RoundTripReports(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(append(trade("buy", "2025-03-03T14:30:00Z", "10", "100"), "-id", "t1")...)
	assert.Contains(t, out, "recorded t1")
	h.mustRun(append(trade("sell", "2025-03-04T14:30:00Z", "10", "110"), "-id", "t2")...)

	out = h.mustRun("realized", "-account", "1")
	assert.Contains(t, out, "| AAPL | 2025-03-03 | 2025-03-04 | closed | 0 | $100.00 | $2.00 | $98.00 |")
	assert.Contains(t, out, "**Net realized:** $98.00 over 1 closed lots")

	out = h.mustRun("balance", "-account", "1")
	assert.Contains(t, out, "| USD | $98.00 |")

	out = h.mustRun("positions", "-account", "1")
	assert.NotContains(t, out, "AAPL")

	out = h.mustRun("snapshots", "-account", "1", "-category", "1", "-instrument", "11")
	assert.Contains(t, out, "| 2025-03-03 | AAPL | 10 | 100 | $1,000.00 | $1.00 |")
	assert.Contains(t, out, "| 2025-03-04 | AAPL | 0 |")

	out = h.mustRun("transactions", "-account", "1")
	assert.Contains(t, out, "| t1 | 2025-03-03T14:30:00Z | buy | AAPL | 10 | 100 | $1.00 |")
	assert.Contains(t, out, "| t2 |")
}

func TestCLI_OpenLotsAndWindow(t *testing.T) {
	h := newHarness(t)
	h.mustRun(trade("buy", "2025-03-03T14:30:00Z", "5", "50")...)

	out := h.mustRun("realized", "-account", "1")
	assert.NotContains(t, out, "AAPL")

	out = h.mustRun("realized", "-account", "1", "-open")
	assert.Contains(t, out, "| AAPL | 2025-03-03 | 2025-03-03 | open | 5 |")

	out = h.mustRun("realized", "-account", "1", "-open", "-from", "2025-03-05")
	assert.NotContains(t, out, "AAPL")

	out = h.mustRun("positions", "-account", "1")
	assert.Contains(t, out, "| AAPL | 5 | 50 | $250.00 |")
}

func TestCLI_UpdateDeleteHistory(t *testing.T) {
	h := newHarness(t)
	h.mustRun(append(trade("buy", "2025-03-03T14:30:00Z", "10", "100"), "-id", "t1")...)

	args := append([]string{"update"}, trade("buy", "2025-03-03T14:30:00Z", "10", "90")[1:]...)
	out := h.mustRun(append(args, "-id", "t1")...)
	assert.Contains(t, out, "updated t1")

	out = h.mustRun("balance", "-account", "1")
	assert.Contains(t, out, "| USD | -$901.00 |")

	out = h.mustRun("delete", "t1")
	assert.Contains(t, out, "deleted t1")

	out = h.mustRun("history", "t1")
	assert.Contains(t, out, "| created | -$1,001.00 |")
	assert.Contains(t, out, "| updated | $100.00 |")
	assert.Contains(t, out, "| deleted | $901.00 |")
}

func TestCLI_ImportQuoteRebuild(t *testing.T) {
	h := newHarness(t)
	file := filepath.Join(h.dir, "trades.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
- account: 2
  executed_at: 2025-03-03T09:00:00-05:00
  side: buy
  category: 3
  instrument: 5
  symbol: zb
  quantity: 1
  price: 117.00
- account: 2
  executed_at: 2025-03-04T09:00:00-05:00
  side: sell
  category: 3
  instrument: 5
  symbol: zb
  quantity: 1
  price: 117.16
`), 0o644))

	out := h.mustRun("import", "-f", file)
	assert.Contains(t, out, "imported 2 trades")

	out = h.mustRun("balance", "-account", "2")
	assert.Contains(t, out, "| USD | $500.00 |")

	out = h.mustRun("quote", "ZB")
	assert.Contains(t, out, "| ZB | 117.16 |")

	out = h.mustRun("rebuild")
	assert.Contains(t, out, "rebuilt 1 instruments")
}

func TestCLI_Price(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("price", "-category", "3", "-instrument", "5", "117.18")
	assert.Equal(t, "117562.5\n", out)

	out = h.mustRun("price", "-category", "3", "-instrument", "5", "-decode", "117562.5")
	assert.Equal(t, "117.18\n", out)

	out = h.mustRun("price", "-category", "1", "-instrument", "11", "187.45")
	assert.Equal(t, "187.45\n", out)

	assert.Equal(t, subcommands.ExitFailure, h.run("price", "-category", "1", "-instrument", "11", "-decode", "1"))
}

func TestCLI_UsageErrors(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, subcommands.ExitUsageError, h.run("add", "-account", "1", "-side", "buy"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("add", "-account", "1", "-side", "hold", "-at", "2025-03-03T14:30:00Z"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("update", "-side", "buy"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("delete"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("history"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("realized", "-from", "03/03/2025"))
	assert.Equal(t, subcommands.ExitFailure, h.run("delete", "missing"))
	assert.Contains(t, h.errOut.String(), "not found")
}

func TestCLI_Info(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("info")
	assert.Contains(t, out, "JOURNAL SUMMARY")
	assert.Contains(t, out, filepath.Join(h.dir, "journal.db"))
}

func TestCLI_LogFile(t *testing.T) {
	h := newHarness(t)
	logPath := filepath.Join(h.dir, "logs", "journal.log")
	body := "app:\n  log_level: info\n  log_path: " + logPath + "\ndatabase:\n  path: " + filepath.Join(h.dir, "journal.db") + "\n"
	require.NoError(t, os.WriteFile(h.config, []byte(body), 0o644))

	h.mustRun(trade("buy", "2025-03-03T14:30:00Z", "1", "10")...)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "transaction created")
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1232.5", "USD", "$1,232.50"},
		{"-1232.5", "USD", "-$1,232.50"},
		{"0.004", "USD", "$0.00"},
		{"1500", "JPY", "¥1,500"},
		{"12.3", "XYZ", "12.30 XYZ"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatMoney(decimal.RequireFromString(tc.amount), tc.currency), tc.amount+" "+tc.currency)
	}
}

func TestMdTable(t *testing.T) {
	got := mdTable([]string{"A", "B"}, [][]string{{"x|y", "1"}})
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "| A | B |", lines[0])
	assert.Equal(t, "| --- | --- |", lines[1])
	assert.Equal(t, `| x\|y | 1 |`, lines[2])
}

func TestCLI_TransactionFiltersAndOpenLot(t *testing.T) {
	h := newHarness(t)
	h.mustRun(append(trade("buy", "2025-03-03T12:00:00Z", "10", "100"), "-id", "t1")...)
	h.mustRun(append(trade("sell", "2025-03-04T12:00:00Z", "10", "110"), "-id", "t2")...)
	h.mustRun(append(trade("buy", "2025-03-05T12:00:00Z", "3", "105"), "-id", "t3")...)

	out := h.mustRun("transactions", "-account", "1", "-from", "2025-03-04", "-to", "2025-03-05")
	assert.Contains(t, out, "| t2 |")
	assert.NotContains(t, out, "| t1 |")
	assert.NotContains(t, out, "| t3 |")

	out = h.mustRun("transactions", "-account", "1", "-symbol", "aapl", "-open-lot")
	assert.Contains(t, out, "## Account 1 open AAPL lot")
	assert.Contains(t, out, "| t3 |")
	assert.NotContains(t, out, "| t2 |")

	assert.Equal(t, subcommands.ExitUsageError, h.run("transactions", "-account", "1", "-open-lot"))
}

func TestCLI_CashEntriesAndSnapshots(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("cash-add", "-account", "1", "-at", "2025-03-03T12:00:00Z", "-kind", "deposit",
		"-amount", "1000", "-id", "c1", "-notes", "opening wire")
	assert.Contains(t, out, "recorded c1")
	h.mustRun("cash-add", "-account", "1", "-at", "2025-03-04T12:00:00Z", "-kind", "withdrawal", "-amount", "200", "-id", "c2")

	out = h.mustRun("balance", "-account", "1")
	assert.Contains(t, out, "| USD | $800.00 |")

	out = h.mustRun("cash", "-account", "1")
	assert.Contains(t, out, "| c1 | 2025-03-03T12:00:00Z | deposit | $1,000.00 | opening wire |")
	assert.Contains(t, out, "| c2 | 2025-03-04T12:00:00Z | withdrawal | -$200.00 |")

	h.mustRun("cash-update", "-id", "c2", "-account", "1", "-at", "2025-03-04T12:00:00Z", "-kind", "withdrawal", "-amount", "250")
	out = h.mustRun("cash-snapshot", "-date", "2025-03-04")
	assert.Contains(t, out, "stored 1 balances for 2025-03-04")
	out = h.mustRun("cash-history", "-account", "1")
	assert.Contains(t, out, "| 2025-03-04 | USD | $750.00 |")

	out = h.mustRun("cash-delete", "c1")
	assert.Contains(t, out, "deleted c1")
	out = h.mustRun("history", "c2")
	assert.Contains(t, out, "| cash_created | -$200.00 |")
	assert.Contains(t, out, "| cash_updated | -$50.00 |")

	assert.Equal(t, subcommands.ExitUsageError, h.run("cash-add", "-account", "1",
		"-at", "2025-03-04T12:00:00Z", "-kind", "transfer", "-amount", "1"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("cash-snapshot", "-date", "yesterday"))
}

func TestCLI_SymbolConflict(t *testing.T) {
	h := newHarness(t)
	h.mustRun(trade("buy", "2025-03-03T12:00:00Z", "1", "100")...)
	args := trade("buy", "2025-03-03T12:00:00Z", "1", "100")
	args[10] = "12"
	assert.Equal(t, subcommands.ExitFailure, h.run(args...))
	assert.Contains(t, h.errOut.String(), "different category or instrument")
}
