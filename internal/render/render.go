package render

import (
	"fmt"
	"html"
	"strings"

	"otc-signal/internal/domain"
)

const (
	TimeLayout = "2006-01-02 15:04:05"
	NotAvail   = "N/A"
)

// Payload is the display form of a decision. Numeric fields are formatted
// to two decimals, or NotAvail for fallback decisions.
type Payload struct {
	Asset          string `json:"asset"`
	Category       string `json:"category"`
	Direction      string `json:"direction"`
	Confidence     string `json:"confidence"`
	Time           string `json:"time"`
	Source         string `json:"source"`
	RSI            string `json:"rsi"`
	SMA            string `json:"sma"`
	MACD           string `json:"macd"`
	BollingerUpper string `json:"bollinger_upper"`
	BollingerLower string `json:"bollinger_lower"`
}

func NewPayload(d domain.SignalDecision) Payload {
	p := Payload{
		Asset:          d.Asset.Label(),
		Category:       string(d.Asset.Category),
		Direction:      string(d.Direction),
		Confidence:     fmt.Sprintf("%.2f", d.Confidence),
		Time:           d.Timestamp.Format(TimeLayout),
		Source:         string(d.Source),
		RSI:            NotAvail,
		SMA:            NotAvail,
		MACD:           NotAvail,
		BollingerUpper: NotAvail,
		BollingerLower: NotAvail,
	}
	if ind := d.Indicators; ind != nil {
		p.RSI = fmt.Sprintf("%.2f", ind.RSI)
		p.SMA = fmt.Sprintf("%.2f", ind.SMA)
		p.MACD = fmt.Sprintf("%.2f", ind.MACD)
		p.BollingerUpper = fmt.Sprintf("%.2f", ind.BollingerUpper)
		p.BollingerLower = fmt.Sprintf("%.2f", ind.BollingerLower)
	}
	return p
}

func (p Payload) lines() []string {
	bands := NotAvail
	if p.BollingerUpper != NotAvail {
		bands = fmt.Sprintf("Upper=%s, Lower=%s", p.BollingerUpper, p.BollingerLower)
	}
	return []string{
		"Asset: " + p.Asset + " (OTC)",
		"Direction: " + p.Direction,
		"Confidence: " + p.Confidence + "%",
		"Time: " + p.Time,
		"RSI: " + p.RSI,
		"SMA: " + p.SMA,
		"MACD: " + p.MACD,
		"Bollinger Bands: " + bands,
	}
}

// HTML joins the lines with <br>, the form the web page injects directly.
// Line text is escaped, so names like "Johnson & Johnson" stay valid markup.
func HTML(d domain.SignalDecision) string {
	lines := NewPayload(d).lines()
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return strings.Join(lines, "<br>")
}

// Text is the newline separated form used by the bot and terminal UI.
func Text(d domain.SignalDecision) string {
	return strings.Join(NewPayload(d).lines(), "\n")
}
