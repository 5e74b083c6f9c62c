// Package tui holds the interactive terminal components for device
// confirmation.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	seaward "github.com/allbin/seaward-capture"
	"github.com/allbin/seaward-capture/internal/tui/keys"
	"github.com/allbin/seaward-capture/internal/tui/styles"
)

// ErrInterrupted is returned when the operator quits the prompt instead of
// answering.
var ErrInterrupted = errors.New("confirmation interrupted")

type confirmModel struct {
	sig      seaward.Signature
	keys     keys.ConfirmKeys
	help     help.Model
	accepted bool
	quit     bool
}

func newConfirmModel(sig seaward.Signature) confirmModel {
	return confirmModel{
		sig:  sig,
		keys: keys.NewConfirmKeys(),
		help: help.New(),
	}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.accepted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.No):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Quit):
			m.quit = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Serial device found"))
	b.WriteString("\n\n")
	b.WriteString(styles.CardBorderStyle.Render(deviceCard(m.sig)))
	b.WriteString("\n\n")
	b.WriteString(styles.PromptStyle.Render("Is this the Seaward meter cable?"))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// deviceCard renders the identifying fields of one candidate.
func deviceCard(sig seaward.Signature) string {
	row := func(label, value string) string {
		return styles.FieldLabelStyle.Render(label) + styles.FieldValueStyle.Render(orDash(value))
	}

	vidpid := ""
	if sig.VID != "" && sig.PID != "" {
		vidpid = sig.VID + ":" + sig.PID
	}
	location := sig.Location
	if sig.Interface != "" {
		location = fmt.Sprintf("%s (if %s)", orDash(sig.Location), sig.Interface)
	}

	rows := []string{
		row("Device", sig.Device),
		row("Description", sig.Description),
		row("Manufacturer", sig.Manufacturer),
		row("Product", sig.Product),
		row("Serial", sig.SerialNumber),
		row("VID:PID", vidpid),
		row("Hardware ID", sig.HWID),
		row("Location", location),
	}
	return strings.Join(rows, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Confirm shows the candidate to the operator and blocks for a yes/no
// answer. Quitting the prompt returns ErrInterrupted.
func Confirm(sig seaward.Signature) (bool, error) {
	m, err := tea.NewProgram(newConfirmModel(sig)).Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	final := m.(confirmModel)
	if final.quit {
		return false, ErrInterrupted
	}
	return final.accepted, nil
}
