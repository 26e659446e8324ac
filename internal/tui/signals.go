package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"otc-signal/internal/domain"
)

const (
	signalTimeout = 30 * time.Second
	historySize   = 10
)

// Signal view message types.
type signalMsg struct{ decision domain.SignalDecision }
type signalErrMsg struct {
	symbol string
	err    error
}

// SignalModel shows the latest decision for the selected asset plus a short
// history of earlier requests in this session.
type SignalModel struct {
	services Services
	asset    *domain.Asset
	current  *domain.SignalDecision
	history  []domain.SignalDecision
	spinner  spinner.Model
	loading  bool
	err      error
	width    int
	height   int
}

func NewSignalModel(svc Services) SignalModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(SpinnerColor)),
	)
	return SignalModel{services: svc, spinner: s}
}

func (m SignalModel) Init() tea.Cmd { return nil }

// Request starts a signal fetch for asset.
func (m SignalModel) Request(asset domain.Asset) (SignalModel, tea.Cmd) {
	m.asset = &asset
	m.loading = true
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, m.fetchSignalCmd(asset))
}

func (m SignalModel) Update(msg tea.Msg) (SignalModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signalMsg:
		if m.asset == nil || msg.decision.Asset.Symbol != m.asset.Symbol {
			return m, nil
		}
		if m.current != nil {
			m.history = append([]domain.SignalDecision{*m.current}, m.history...)
			if len(m.history) > historySize {
				m.history = m.history[:historySize]
			}
		}
		d := msg.decision
		m.current = &d
		m.loading = false
		m.err = nil
		return m, nil

	case signalErrMsg:
		if m.asset == nil || msg.symbol != m.asset.Symbol {
			return m, nil
		}
		m.err = msg.err
		m.loading = false
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, DefaultKeyMap.Refresh) && m.asset != nil && !m.loading {
			return m.Request(*m.asset)
		}
	}
	return m, nil
}

func (m SignalModel) View() string {
	var sections []string
	sections = append(sections, HeaderStyle.Render("  Signal"))
	sections = append(sections, "")

	switch {
	case m.asset == nil:
		sections = append(sections, SubtextStyle.Render("  Pick an asset on the Assets tab"))
		return strings.Join(sections, "\n")
	case m.loading:
		sections = append(sections, fmt.Sprintf("  %s Analyzing %s (OTC)...", m.spinner.View(), m.asset.Label()))
	case m.err != nil:
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	case m.current != nil:
		sections = append(sections, BorderStyle.Render(FormatSignalCard(*m.current)))
		sections = append(sections, "  Confidence "+RenderConfidenceBar(m.current.Confidence, 30))
	}

	if len(m.history) > 0 {
		sections = append(sections, "")
		sections = append(sections, SubtextStyle.Render("  Earlier this session"))
		for _, d := range m.history {
			sections = append(sections, "  "+FormatDecision(d))
		}
	}

	sections = append(sections, "")
	sections = append(sections, SubtextStyle.Render("  [R] refresh  [tab] switch"))
	return strings.Join(sections, "\n")
}

func (m *SignalModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Current returns the latest decision (for testing).
func (m SignalModel) Current() (domain.SignalDecision, bool) {
	if m.current == nil {
		return domain.SignalDecision{}, false
	}
	return *m.current, true
}

func (m SignalModel) fetchSignalCmd(asset domain.Asset) tea.Cmd {
	signals := m.services.Signals
	creds := m.services.Credentials
	return func() tea.Msg {
		if signals == nil {
			return signalErrMsg{symbol: asset.Symbol, err: fmt.Errorf("signal service not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), signalTimeout)
		defer cancel()
		decision, err := signals.GetSignal(ctx, asset.Symbol, creds)
		if err != nil {
			return signalErrMsg{symbol: asset.Symbol, err: err}
		}
		return signalMsg{decision: decision}
	}
}
