package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for the x/term calls.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var ErrPassphraseMismatch = errors.New("passphrases do not match")

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassphrase prints prompt to w and reads a passphrase: without echo from
// the terminal, or as a plain line from reader when stdin is not a terminal.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassphrase(reader *bufio.Reader, prompt string, w io.Writer) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		line, err := GetSimpleText(reader, prompt, w)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}

	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetNewPassphrase asks twice and fails unless both answers match.
func GetNewPassphrase(reader *bufio.Reader, w io.Writer) ([]byte, error) {
	first, err := GetPassphrase(reader, "Enter passphrase", w)
	if err != nil {
		return nil, err
	}
	second, err := GetPassphrase(reader, "Repeat passphrase", w)
	if err != nil {
		wipe(first)
		return nil, err
	}
	defer wipe(second)

	if string(first) != string(second) {
		wipe(first)
		return nil, ErrPassphraseMismatch
	}
	if len(first) == 0 {
		return nil, errors.New("empty passphrase")
	}
	return first, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
