package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep the UI readable on light terminals.
var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#5A3FD1", Dark: "#7D56F4"}
	colorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#FAFAFA"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
	colorFrame   = lipgloss.AdaptiveColor{Light: "#BDBDBD", Dark: "#4A4A4A"}
	colorBull    = lipgloss.AdaptiveColor{Light: "#0B8A3E", Dark: "#26D367"}
	colorBear    = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF5252"}
	colorNeutral = lipgloss.AdaptiveColor{Light: "#B58900", Dark: "#F4D03F"}
)

var (
	tabBase          = lipgloss.NewStyle().Padding(0, 2)
	ActiveTabStyle   = tabBase.Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(colorAccent)
	InactiveTabStyle = tabBase.Foreground(colorMuted)

	DirectionUpStyle      = lipgloss.NewStyle().Foreground(colorBull).Bold(true)
	DirectionDownStyle    = lipgloss.NewStyle().Foreground(colorBear).Bold(true)
	DirectionNeutralStyle = lipgloss.NewStyle().Foreground(colorNeutral)

	// Candles reuse the direction colors without the bold weight.
	CandleUpStyle   = lipgloss.NewStyle().Foreground(colorBull)
	CandleDownStyle = lipgloss.NewStyle().Foreground(colorBear)
	CandleFlatStyle = lipgloss.NewStyle().Foreground(colorMuted)

	ConfidenceHighStyle = CandleUpStyle
	ConfidenceMidStyle  = lipgloss.NewStyle().Foreground(colorNeutral)
	ConfidenceLowStyle  = CandleDownStyle

	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	SubtextStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	BorderStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFrame).Padding(0, 1)
	ErrorStyle    = lipgloss.NewStyle().Foreground(colorBear)
	SelectedStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	SpinnerColor  = colorAccent
)
