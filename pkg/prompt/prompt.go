// Package prompt provides the interactive yes/no confirmation used to
// gate destructive steps. It is an injected capability so pipeline
// branching stays testable without a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the operator a yes/no question. Anything but an
// explicit affirmative answer counts as no.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// Terminal asks on w and reads a single answer line from r. Only the
// exact answer "y" is affirmative.
type Terminal struct {
	r *bufio.Reader
	w io.Writer
}

// New creates a Terminal. The reader is shared across prompts so a
// run with several questions does not lose buffered input.
func New(r io.Reader, w io.Writer) *Terminal {
	return &Terminal{r: bufio.NewReader(r), w: w}
}

// Confirm implements Confirmer.
func (t *Terminal) Confirm(question string) (bool, error) {
	if _, err := fmt.Fprintf(t.w, "%s (y/n): ", question); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}

	line, err := t.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line) == "y", nil
}
