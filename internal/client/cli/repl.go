package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Scan(ctx context.Context, args []string) error
	Sell(ctx context.Context, args []string) error
	Sales(ctx context.Context) error
	Pending(ctx context.Context) error
	Conflicts(ctx context.Context) error
	Ack(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Prefetch(ctx context.Context) error
	Status(ctx context.Context) error
	Purge(ctx context.Context) error
}

// runREPL reads one command per line and dispatches to a. The loop exits on
// scanner EOF, on "exit" or "quit", or when ctx is done.
//
// Errors returned by command handlers are printed and otherwise ignored, so
// a failed sale never ends the session.
func runREPL(ctx context.Context, a execIface, promptFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		if p := promptFn(); p != "" {
			fmt.Print(p)
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn("Available commands: scan <barcode>, sell <barcode> <cash|card|check>, sales, pending, conflicts, ack <id> [note], sync, prefetch, status, purge, exit")
		case "scan":
			err = a.Scan(ctx, args)
		case "sell":
			err = a.Sell(ctx, args)
		case "sales":
			err = a.Sales(ctx)
		case "pending":
			err = a.Pending(ctx)
		case "conflicts":
			err = a.Conflicts(ctx)
		case "ack":
			err = a.Ack(ctx, args)
		case "sync":
			err = a.Sync(ctx)
		case "prefetch":
			err = a.Prefetch(ctx)
		case "status":
			err = a.Status(ctx)
		case "purge":
			err = a.Purge(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}
