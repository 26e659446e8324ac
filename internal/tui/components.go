package tui

import (
	"fmt"
	"math"
	"strings"

	"otc-signal/internal/domain"
	"otc-signal/internal/render"
)

// DirectionStyle picks the color for a signal direction.
func DirectionStyle(d domain.Direction) func(...string) string {
	switch d {
	case domain.DirectionUp:
		return DirectionUpStyle.Render
	case domain.DirectionDown:
		return DirectionDownStyle.Render
	default:
		return DirectionNeutralStyle.Render
	}
}

// FormatDecision renders a decision as a single history line.
func FormatDecision(d domain.SignalDecision) string {
	source := "IND"
	if d.IsFallback() {
		source = "FBK"
	}
	return fmt.Sprintf("%-10s %s %6.2f%%  %s  %s",
		d.Asset.Symbol,
		DirectionStyle(d.Direction)(fmt.Sprintf("%-7s", d.Direction)),
		d.Confidence,
		SubtextStyle.Render(source),
		d.Timestamp.Format(render.TimeLayout),
	)
}

// FormatSignalCard renders the full decision the way the bot prints it, with
// the direction line colored.
func FormatSignalCard(d domain.SignalDecision) string {
	lines := strings.Split(render.Text(d), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "Direction: ") {
			lines[i] = "Direction: " + DirectionStyle(d.Direction)(string(d.Direction))
		}
	}
	if d.IsFallback() && d.Reason != "" {
		lines = append(lines, SubtextStyle.Render("Fallback: "+d.Reason))
	}
	return strings.Join(lines, "\n")
}

// FormatCandle renders one archived candle as a table row.
func FormatCandle(c *domain.Candle) string {
	style := CandleFlatStyle
	if c.Close > c.Open {
		style = CandleUpStyle
	} else if c.Close < c.Open {
		style = CandleDownStyle
	}
	return fmt.Sprintf("%s  %12s %12s %12s %s",
		c.OpenTime.UTC().Format(render.TimeLayout),
		formatPrice(c.Open),
		formatPrice(c.High),
		formatPrice(c.Low),
		style.Render(fmt.Sprintf("%12s", formatPrice(c.Close))),
	)
}

// RenderConfidenceBar renders confidence (0-100) as an ASCII bar.
func RenderConfidenceBar(confidence float64, barWidth int) string {
	if barWidth <= 0 {
		barWidth = 20
	}
	filled := int(math.Round(confidence / 100 * float64(barWidth)))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	style := ConfidenceHighStyle
	if confidence < 70 {
		style = ConfidenceLowStyle
	} else if confidence < 85 {
		style = ConfidenceMidStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) + SubtextStyle.Render(strings.Repeat("░", empty))
	return fmt.Sprintf("%s %.2f%%", bar, confidence)
}

func formatPrice(v float64) string {
	if v >= 1000 {
		return addCommas(fmt.Sprintf("%.2f", v))
	}
	if v >= 1 {
		return fmt.Sprintf("%.4f", v)
	}
	return fmt.Sprintf("%.6f", v)
}

// addCommas groups the integer part of a formatted number.
func addCommas(s string) string {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	n := len(intPart)
	if n <= 3 {
		return s
	}
	var result strings.Builder
	for i, ch := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(ch)
	}
	return result.String() + frac
}
