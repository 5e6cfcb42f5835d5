// Package prompt asks the user to confirm destructive actions.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Always answers every question with the same value. Always(true) backs --yes.
type Always bool

func (a Always) Confirm(context.Context, string) (bool, error) { return bool(a), nil }

// Terminal reads the answer from In after writing the question to Out.
// Only "y" or "yes" (any case) confirms. EOF counts as no.
type Terminal struct {
	In  *bufio.Reader
	Out io.Writer
}

// NewTerminal wraps in and out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: bufio.NewReader(in), Out: out}
}

func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(t.Out, "%s [y/N]: ", question); err != nil {
		return false, err
	}

	line, err := t.In.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
