package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a screen tab in the TUI.
type Tab int

const (
	TabAssets Tab = iota
	TabSignal
	TabArchive
)

var tabNames = []string{"1:Assets", "2:Signal", "3:Archive"}

// AppModel is the root Bubble Tea model that manages tab navigation and child screens.
type AppModel struct {
	services  Services
	activeTab Tab
	assets    AssetPickerModel
	signal    SignalModel
	archive   ArchiveModel
	help      help.Model
	width     int
	height    int
	quitting  bool
}

// NewAppModel creates the root application model with all child screens.
func NewAppModel(svc Services) AppModel {
	return AppModel{
		services:  svc,
		activeTab: TabAssets,
		assets:    NewAssetPickerModel(),
		signal:    NewSignalModel(svc),
		archive:   NewArchiveModel(svc),
		help:      help.New(),
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.assets.Init(),
		m.signal.Init(),
		m.archive.Init(),
	)
}

// Update handles incoming messages, routing to the active tab.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.propagateSize()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, DefaultKeyMap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.propagateSize()
			return m, nil

		case key.Matches(msg, DefaultKeyMap.NextTab):
			m.activeTab = (m.activeTab + 1) % Tab(len(tabNames))
			return m, nil

		case key.Matches(msg, DefaultKeyMap.PrevTab):
			m.activeTab = (m.activeTab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
			return m, nil

		case key.Matches(msg, DefaultKeyMap.JumpTab):
			m.activeTab = Tab(msg.String()[0] - '1')
			return m, nil
		}

	case assetSelectedMsg:
		var signalCmd, archiveCmd tea.Cmd
		m.signal, signalCmd = m.signal.Request(msg.asset)
		m.archive, archiveCmd = m.archive.Load(msg.asset)
		m.activeTab = TabSignal
		return m, tea.Batch(signalCmd, archiveCmd)
	}

	// Async results go to their owner regardless of the active tab.
	var cmd tea.Cmd
	switch msg.(type) {
	case signalMsg, signalErrMsg, spinner.TickMsg:
		m.signal, cmd = m.signal.Update(msg)
	case archiveMsg, archiveErrMsg:
		m.archive, cmd = m.archive.Update(msg)
	default:
		switch m.activeTab {
		case TabAssets:
			m.assets, cmd = m.assets.Update(msg)
		case TabSignal:
			m.signal, cmd = m.signal.Update(msg)
		case TabArchive:
			m.archive, cmd = m.archive.Update(msg)
		}
	}
	return m, cmd
}

// View renders the tab bar and active screen.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var content string
	switch m.activeTab {
	case TabAssets:
		content = m.assets.View()
	case TabSignal:
		content = m.signal.View()
	case TabArchive:
		content = m.archive.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabBar(), content, m.help.View(DefaultKeyMap))
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.propagateSize()
}

// ActiveTab returns the currently active tab (for testing).
func (m AppModel) ActiveTab() Tab { return m.activeTab }

// propagateSize leaves room for the tab bar and the help footer.
func (m *AppModel) propagateSize() {
	m.help.Width = m.width
	footer := 1
	if m.help.ShowAll {
		for _, col := range DefaultKeyMap.FullHelp() {
			footer = max(footer, len(col))
		}
	}
	contentHeight := m.height - 2 - footer
	m.assets.SetSize(m.width, contentHeight)
	m.signal.SetSize(m.width, contentHeight)
	m.archive.SetSize(m.width, contentHeight)
}

func (m AppModel) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		label := name
		if i == 0 && m.services.Username != "" {
			label = name + " (" + m.services.Username + ")"
		}
		if Tab(i) == m.activeTab {
			tabs = append(tabs, ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
