package keys

import "github.com/charmbracelet/bubbles/key"

// ConfirmKeys are the bindings for the yes/no device confirmation prompt
type ConfirmKeys struct {
	Yes  key.Binding
	No   key.Binding
	Quit key.Binding
}

func NewConfirmKeys() ConfirmKeys {
	return ConfirmKeys{
		Yes: key.NewBinding(
			key.WithKeys("y", "Y", "enter"),
			key.WithHelp("y/enter", "use this device"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "skip"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
	}
}

func (k ConfirmKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No, k.Quit}
}

func (k ConfirmKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Yes, k.No},
		{k.Quit},
	}
}
