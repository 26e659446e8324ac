package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"otc-signal/internal/domain"
)

func TestAssetPickerCategoryCycling(t *testing.T) {
	m := NewAssetPickerModel()
	m.SetSize(120, 40)

	if m.Category() != domain.CategoryForex {
		t.Fatalf("expected Forex first, got %s", m.Category())
	}
	m, _ = m.Update(keyRune('j'))
	m, _ = m.Update(keyRune('c'))
	if m.Category() != domain.CategoryCrypto {
		t.Fatalf("expected Cryptocurrencies, got %s", m.Category())
	}
	if asset, _ := m.Selected(); asset.Symbol != "BTC/USD" {
		t.Fatalf("cursor should reset on category change, got %s", asset.Symbol)
	}

	for range domain.Categories[1:] {
		m, _ = m.Update(keyRune('c'))
	}
	if m.Category() != domain.CategoryForex {
		t.Fatalf("expected wrap to Forex, got %s", m.Category())
	}
}

func TestAssetPickerMoveAndSelect(t *testing.T) {
	m := NewAssetPickerModel()
	m.SetSize(120, 40)

	m, _ = m.Update(keyRune('k'))
	if asset, _ := m.Selected(); asset.Symbol != domain.AssetsByCategory()[domain.CategoryForex][0].Symbol {
		t.Fatalf("cursor moved above first row: %s", asset.Symbol)
	}

	m, _ = m.Update(keyRune('j'))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected selection command")
	}
	msg, ok := cmd().(assetSelectedMsg)
	if !ok {
		t.Fatal("expected assetSelectedMsg")
	}
	want := domain.AssetsByCategory()[domain.CategoryForex][1]
	if msg.asset != want {
		t.Fatalf("expected %s, got %s", want.Symbol, msg.asset.Symbol)
	}
}

func TestAssetPickerScrolls(t *testing.T) {
	m := NewAssetPickerModel()
	m.SetSize(120, 12)

	for i := 0; i < 10; i++ {
		m, _ = m.Update(keyRune('j'))
	}
	if m.scrollOffset == 0 {
		t.Fatal("expected list to scroll")
	}
	view := m.View()
	if !strings.Contains(view, "Showing") {
		t.Fatalf("expected scroll footer: %s", view)
	}
}
