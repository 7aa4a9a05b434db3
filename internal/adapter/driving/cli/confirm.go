package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/integrations-hub/integrations/internal/application"
)

// promptConfirmer asks a question on out and reads one line from in.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	tty bool
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	tty := false
	if f, ok := in.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &promptConfirmer{in: bufio.NewReader(in), out: out, tty: tty}
}

// Confirm returns true only for the answer "y". End of input counts as a refusal.
func (p *promptConfirmer) Confirm(question string) (bool, error) {
	fmt.Fprint(p.out, question+" ")

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if !p.tty {
		// Piped answers are not echoed by a terminal.
		fmt.Fprintln(p.out)
	}

	return application.ConfirmAnswer(line), nil
}
