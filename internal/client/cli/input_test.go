package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubTerminal(t *testing.T, tty bool, pw []byte, err error) {
	t.Helper()
	origRead, origTTY := readPassword, isTerminal
	t.Cleanup(func() {
		readPassword = origRead
		isTerminal = origTTY
	})
	isTerminal = func(int) bool { return tty }
	readPassword = func(int) ([]byte, error) { return pw, err }
}

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(in, "Name?", &out)
	require.Error(t, err)
}

func TestGetPassphrase_Terminal(t *testing.T) {
	stubTerminal(t, true, []byte("s3cret"), nil)

	var out bytes.Buffer
	got, err := GetPassphrase(bufio.NewReader(strings.NewReader("")), "Enter passphrase", &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(got))
	assert.Equal(t, "Enter passphrase: \n", out.String())
}

func TestGetPassphrase_TerminalError(t *testing.T) {
	stubTerminal(t, true, nil, errors.New("no tty"))

	_, err := GetPassphrase(bufio.NewReader(strings.NewReader("")), "p", &bytes.Buffer{})
	require.Error(t, err)
}

func TestGetPassphrase_Piped(t *testing.T) {
	stubTerminal(t, false, nil, errors.New("must not be called"))

	got, err := GetPassphrase(bufio.NewReader(strings.NewReader("piped pw\n")), "p", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "piped pw", string(got))
}

func TestGetNewPassphrase(t *testing.T) {
	stubTerminal(t, false, nil, nil)

	got, err := GetNewPassphrase(bufio.NewReader(strings.NewReader("abc\nabc\n")), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = GetNewPassphrase(bufio.NewReader(strings.NewReader("abc\nabd\n")), &bytes.Buffer{})
	require.ErrorIs(t, err, ErrPassphraseMismatch)

	_, err = GetNewPassphrase(bufio.NewReader(strings.NewReader("\n\n")), &bytes.Buffer{})
	require.Error(t, err)
}
