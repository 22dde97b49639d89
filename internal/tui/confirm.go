package tui

// approval is the page's Confirmer. A TUI can't block inside a command waiting for an answer,
// so the first attempt is refused and its prompt kept; once the user agrees in the modal the
// gate is armed and the command runs again.
type approval struct {
	armed bool
	asked string
}

func (a *approval) Confirm(prompt string) bool {
	ok := a.armed
	a.armed = false
	if !ok {
		a.asked = prompt
	}
	return ok
}

func (a *approval) arm() { a.armed = true }

// take returns and clears the last refused prompt.
func (a *approval) take() string {
	p := a.asked
	a.asked = ""
	return p
}

type confirmFocus int

const (
	confirmFocusConfirm confirmFocus = iota
	confirmFocusCancel
)

type confirmState struct {
	prompt string
	focus  confirmFocus
	onYes  func()
}
