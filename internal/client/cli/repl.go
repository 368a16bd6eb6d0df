package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

const helpText = "Available commands: send <path>, receive <id> <out>, (l)ist, show <id>, delete <id>, exit"

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Send(ctx context.Context, args []string) error
	Receive(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

// runREPL reads a line from reader, parses the first token as the command,
// and dispatches to a. The loop exits on EOF, on "exit" or "quit", or when
// ctx is cancelled. Command errors are printed and the loop goes on.
//
// Commands prompt for passphrases on the same reader, so no lookahead
// buffering happens here.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printlnFn("tg> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "send":
			cmdErr = a.Send(ctx, args)
		case "receive":
			cmdErr = a.Receive(ctx, args)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
