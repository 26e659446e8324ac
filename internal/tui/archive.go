package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"otc-signal/internal/domain"
)

const archiveLimit = 120

type archiveMsg struct {
	symbol  string
	candles []*domain.Candle
}
type archiveErrMsg struct {
	symbol string
	err    error
}

// ArchiveModel lists the candles stored for the selected asset, newest first.
type ArchiveModel struct {
	services     Services
	asset        *domain.Asset
	candles      []*domain.Candle
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
}

func NewArchiveModel(svc Services) ArchiveModel {
	return ArchiveModel{services: svc}
}

func (m ArchiveModel) Init() tea.Cmd { return nil }

// Load switches the view to asset and fetches its candles.
func (m ArchiveModel) Load(asset domain.Asset) (ArchiveModel, tea.Cmd) {
	m.asset = &asset
	m.loading = true
	m.err = nil
	return m, m.fetchArchiveCmd(asset)
}

func (m ArchiveModel) Update(msg tea.Msg) (ArchiveModel, tea.Cmd) {
	switch msg := msg.(type) {
	case archiveMsg:
		if m.asset == nil || msg.symbol != m.asset.Symbol {
			return m, nil
		}
		m.candles = msg.candles
		m.scrollOffset = 0
		m.loading = false
		m.err = nil
		return m, nil

	case archiveErrMsg:
		if m.asset == nil || msg.symbol != m.asset.Symbol {
			return m, nil
		}
		m.err = msg.err
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Refresh):
			if m.asset != nil {
				return m.Load(*m.asset)
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.scrollOffset < len(m.candles)-m.visibleRows() {
				m.scrollOffset++
			}
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}
		}
	}
	return m, nil
}

func (m ArchiveModel) View() string {
	var sections []string
	title := "  Candle Archive"
	if m.asset != nil {
		title += " - " + m.asset.Symbol
	}
	sections = append(sections, HeaderStyle.Render(title))
	sections = append(sections, "")

	switch {
	case m.asset == nil:
		sections = append(sections, SubtextStyle.Render("  Pick an asset on the Assets tab"))
		return strings.Join(sections, "\n")
	case m.loading:
		sections = append(sections, SubtextStyle.Render("  Loading..."))
		return strings.Join(sections, "\n")
	case m.err != nil:
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		return strings.Join(sections, "\n")
	case len(m.candles) == 0:
		sections = append(sections, SubtextStyle.Render("  No archived candles yet"))
		return strings.Join(sections, "\n")
	}

	sections = append(sections, SubtextStyle.Render(
		fmt.Sprintf("  %-19s  %12s %12s %12s %12s", "Open time", "Open", "High", "Low", "Close"),
	))
	end := min(m.scrollOffset+m.visibleRows(), len(m.candles))
	for i := m.scrollOffset; i < end; i++ {
		sections = append(sections, "  "+FormatCandle(m.candles[i]))
	}
	if len(m.candles) > m.visibleRows() {
		sections = append(sections, SubtextStyle.Render(
			fmt.Sprintf("  Showing %d-%d of %d (j/k to scroll)", m.scrollOffset+1, end, len(m.candles)),
		))
	}

	sections = append(sections, "")
	sections = append(sections, SubtextStyle.Render("  [R] refresh  [j/k] scroll"))
	return strings.Join(sections, "\n")
}

func (m *ArchiveModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// CandleCount returns the number of loaded candles (for testing).
func (m ArchiveModel) CandleCount() int { return len(m.candles) }

func (m ArchiveModel) fetchArchiveCmd(asset domain.Asset) tea.Cmd {
	signals := m.services.Signals
	return func() tea.Msg {
		if signals == nil {
			return archiveErrMsg{symbol: asset.Symbol, err: fmt.Errorf("signal service not available")}
		}
		candles, err := signals.ListArchivedCandles(context.Background(), asset.Symbol, archiveLimit)
		if err != nil {
			return archiveErrMsg{symbol: asset.Symbol, err: err}
		}
		return archiveMsg{symbol: asset.Symbol, candles: candles}
	}
}

func (m ArchiveModel) visibleRows() int {
	available := m.height - 8
	if available < 5 {
		return 5
	}
	return available
}
