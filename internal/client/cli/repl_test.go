package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
	args  [][]string
	err   error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.err
}

func (f *fakeExec) Scan(ctx context.Context, args []string) error { return f.record("scan", args) }
func (f *fakeExec) Sell(ctx context.Context, args []string) error { return f.record("sell", args) }
func (f *fakeExec) Sales(ctx context.Context) error               { return f.record("sales", nil) }
func (f *fakeExec) Pending(ctx context.Context) error             { return f.record("pending", nil) }
func (f *fakeExec) Conflicts(ctx context.Context) error           { return f.record("conflicts", nil) }
func (f *fakeExec) Ack(ctx context.Context, args []string) error  { return f.record("ack", args) }
func (f *fakeExec) Sync(ctx context.Context) error                { return f.record("sync", nil) }
func (f *fakeExec) Prefetch(ctx context.Context) error            { return f.record("prefetch", nil) }
func (f *fakeExec) Status(ctx context.Context) error              { return f.record("status", nil) }
func (f *fakeExec) Purge(ctx context.Context) error               { return f.record("purge", nil) }

func capturePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrint(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"scan 111",
		"sell 111 card",
		"",
		"sales",
		"pending",
		"conflicts",
		"ack abc refunded at desk",
		"sync",
		"prefetch",
		"status",
		"purge",
		"exit",
		"scan never-reached",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	assert.Equal(t, []string{"scan", "sell", "sales", "pending", "conflicts", "ack", "sync", "prefetch", "status", "purge"}, exec.calls)
	assert.Equal(t, []string{"111", "card"}, exec.args[1])
	assert.Equal(t, []string{"abc", "refunded", "at", "desk"}, exec.args[5])
}

func TestRunREPL_UnknownCommandAndErrors(t *testing.T) {
	lines := capturePrint(t)

	exec := &fakeExec{err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("foobar\nsync\nquit\n")))

	assert.Contains(t, *lines, "Unknown command: foobar")
	assert.Contains(t, *lines, "Error: boom")
	assert.Contains(t, *lines, "Bye!")
}

func TestRunREPL_StopsOnEOFAndCancel(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("sync")))
	assert.Equal(t, []string{"sync"}, exec.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec = &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("sync\n")))
	assert.Empty(t, exec.calls)
}
