package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader decodes a JSON value of type T named by a --file flag, or piped
// on Stdin when the flag is unset.
type FileReader[T any] struct {
	Path string
	// Stdin defaults to os.Stdin.
	Stdin io.Reader
}

// Flag returns the --file flag bound to Path.
func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "read JSON from this file instead of stdin",
		Destination: &fr.Path,
	}
}

// Read decodes the value. An interactive stdin is an error, not a prompt.
func (fr *FileReader[T]) Read() (T, error) {
	var out T

	r, closer, err := fr.open()
	if err != nil {
		return out, err
	}
	defer closer()

	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, fmt.Errorf("decode JSON: %w", err)
	}
	return out, nil
}

func (fr *FileReader[T]) open() (io.Reader, func(), error) {
	if fr.Path != "" {
		f, err := os.Open(fr.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", fr.Path, err)
		}
		return f, func() { _ = f.Close() }, nil
	}

	stdin := fr.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, nil, fmt.Errorf("stdin is a terminal; pass --file or pipe JSON in")
	}
	return stdin, func() {}, nil
}
