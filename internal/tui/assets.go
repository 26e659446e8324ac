package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"otc-signal/internal/domain"
)

// assetSelectedMsg is emitted when the user picks an asset.
type assetSelectedMsg struct{ asset domain.Asset }

// AssetPickerModel lists the catalog one category at a time.
type AssetPickerModel struct {
	byCategory   map[domain.AssetCategory][]domain.Asset
	categoryIdx  int
	cursor       int
	scrollOffset int
	width        int
	height       int
}

func NewAssetPickerModel() AssetPickerModel {
	return AssetPickerModel{byCategory: domain.AssetsByCategory()}
}

func (m AssetPickerModel) Init() tea.Cmd { return nil }

func (m AssetPickerModel) Update(msg tea.Msg) (AssetPickerModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	assets := m.assets()

	switch {
	case key.Matches(keyMsg, DefaultKeyMap.Category):
		m.categoryIdx = (m.categoryIdx + 1) % len(domain.Categories)
		m.cursor = 0
		m.scrollOffset = 0

	case key.Matches(keyMsg, DefaultKeyMap.Down):
		if m.cursor < len(assets)-1 {
			m.cursor++
		}
		if m.cursor >= m.scrollOffset+m.visibleRows() {
			m.scrollOffset++
		}

	case key.Matches(keyMsg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		if m.cursor < m.scrollOffset {
			m.scrollOffset = m.cursor
		}

	case key.Matches(keyMsg, DefaultKeyMap.Select):
		if len(assets) == 0 {
			return m, nil
		}
		asset := assets[m.cursor]
		return m, func() tea.Msg { return assetSelectedMsg{asset: asset} }
	}
	return m, nil
}

func (m AssetPickerModel) View() string {
	var sections []string
	sections = append(sections, HeaderStyle.Render("  OTC Assets"))
	sections = append(sections, "")
	sections = append(sections, "  "+m.renderCategories())
	sections = append(sections, SubtextStyle.Render(strings.Repeat("─", max(m.width-2, 0))))

	assets := m.assets()
	end := min(m.scrollOffset+m.visibleRows(), len(assets))
	for i := m.scrollOffset; i < end; i++ {
		line := fmt.Sprintf("%-12s %s", assets[i].Symbol, assets[i].Name)
		if i == m.cursor {
			sections = append(sections, SelectedStyle.Render("> "+line))
		} else {
			sections = append(sections, "  "+line)
		}
	}
	if len(assets) > m.visibleRows() {
		sections = append(sections, SubtextStyle.Render(
			fmt.Sprintf("  Showing %d-%d of %d", m.scrollOffset+1, end, len(assets)),
		))
	}

	sections = append(sections, "")
	sections = append(sections, SubtextStyle.Render("  [c] category  [j/k] move  [enter] get signal  [q] quit"))
	return strings.Join(sections, "\n")
}

func (m *AssetPickerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Selected returns the highlighted asset (for testing).
func (m AssetPickerModel) Selected() (domain.Asset, bool) {
	assets := m.assets()
	if len(assets) == 0 {
		return domain.Asset{}, false
	}
	return assets[m.cursor], true
}

func (m AssetPickerModel) Category() domain.AssetCategory {
	return domain.Categories[m.categoryIdx]
}

func (m AssetPickerModel) assets() []domain.Asset {
	return m.byCategory[m.Category()]
}

func (m AssetPickerModel) renderCategories() string {
	var parts []string
	for i, c := range domain.Categories {
		if i == m.categoryIdx {
			parts = append(parts, ActiveTabStyle.Render(string(c)))
		} else {
			parts = append(parts, InactiveTabStyle.Render(string(c)))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m AssetPickerModel) visibleRows() int {
	available := m.height - 8
	if available < 5 {
		return 5
	}
	return available
}
