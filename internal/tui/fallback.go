package tui

import (
	"fmt"
	"io"
)

// runFallback handles non-TTY execution by pointing at the equivalent
// one-shot commands.
func runFallback(w io.Writer) error {
	fmt.Fprintln(w, "Non-TTY environment detected.")
	fmt.Fprintln(w, "Use the non-interactive commands instead:")
	fmt.Fprintln(w, "  pictoria login             sign in")
	fmt.Fprintln(w, "  pictoria albums            list albums")
	fmt.Fprintln(w, "  pictoria album <folder>    show stories and pictograms")
	fmt.Fprintln(w, "  pictoria upload <file>     create an album from an image")
	return nil
}
