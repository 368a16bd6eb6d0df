package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/transferguard/internal/client/services"
	"github.com/dmitrijs2005/transferguard/internal/common"
)

var ErrUsage = errors.New("usage")

type App struct {
	transfers services.TransferService
	reader    *bufio.Reader
	out       io.Writer
}

func NewApp(ts services.TransferService, in io.Reader, out io.Writer) *App {
	return &App{transfers: ts, reader: bufio.NewReader(in), out: out}
}

// Run starts the REPL on the app's input.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to TransferGuard CLI (type 'help' for commands)")
	runREPL(ctx, a, a.reader)
}

// Exec runs a single command, e.g. []string{"send", "file.bin"}.
func (a *App) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command", ErrUsage)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "send":
		return a.Send(ctx, rest)
	case "receive":
		return a.Receive(ctx, rest)
	case "list":
		return a.List(ctx, rest)
	case "show":
		return a.Show(ctx, rest)
	case "delete":
		return a.Delete(ctx, rest)
	case "help":
		printlnFn(helpText)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) Send(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: send <path>", ErrUsage)
	}

	pass, err := GetNewPassphrase(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	t, err := a.transfers.Send(ctx, args[0], pass)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "sent %s (%d bytes, %d chunks)\ntransfer id: %s\n", t.FileName, t.Size, t.TotalChunks, t.ID)
	return nil
}

func (a *App) Receive(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: receive <id> <out>", ErrUsage)
	}

	pass, err := GetPassphrase(a.reader, "Enter passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	t, err := a.transfers.Receive(ctx, args[0], args[1], pass)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "received %s into %s (%d bytes)\n", t.FileName, args[1], t.Size)
	return nil
}

func (a *App) List(ctx context.Context, _ []string) error {
	rows, err := a.transfers.List(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "no transfers")
		return nil
	}
	for _, t := range rows {
		fmt.Fprintf(a.out, "%s  %-9s  %s  %d bytes  %d chunks  %s\n",
			t.ID, t.Status, t.FileName, t.Size, t.TotalChunks, t.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show <id>", ErrUsage)
	}

	t, chunks, err := a.transfers.Show(ctx, args[0])
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "id:       %s\n", t.ID)
	fmt.Fprintf(&b, "file:     %s\n", t.FileName)
	fmt.Fprintf(&b, "size:     %d bytes\n", t.Size)
	fmt.Fprintf(&b, "chunks:   %d x %d bytes\n", t.TotalChunks, t.ChunkSize)
	fmt.Fprintf(&b, "cipher:   %s\n", t.Cipher)
	fmt.Fprintf(&b, "storage:  %s\n", t.StorageBackend)
	fmt.Fprintf(&b, "status:   %s\n", t.Status)
	fmt.Fprintf(&b, "created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, c := range chunks {
		fmt.Fprintf(&b, "  #%-5d %8d bytes  %s  %s\n", c.ChunkID, c.Size, c.Status, c.Checksum)
	}
	_, err = io.WriteString(a.out, b.String())
	return err
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete <id>", ErrUsage)
	}
	if err := a.transfers.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", args[0])
	return nil
}
