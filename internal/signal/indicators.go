package signal

import (
	"errors"
	"math"

	"otc-signal/internal/domain"
)

const (
	// WindowSize is the number of most recent closes the indicator set needs.
	WindowSize = 26

	rsiPeriod        = 14
	smaPeriod        = 7
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
	bollingerPeriod  = 20
	bollingerStdDevs = 2.0
)

var errNonFinite = errors.New("non-finite value")

// Compute derives the indicator set from the most recent WindowSize closes.
// Closes are ordered oldest to newest. MACD uses plain windowed means in
// place of exponential averages.
func Compute(closes []float64) (domain.IndicatorSet, error) {
	if len(closes) < WindowSize {
		return domain.IndicatorSet{}, &domain.InsufficientDataError{Have: len(closes), Need: WindowSize}
	}
	window := closes[len(closes)-WindowSize:]
	for _, c := range window {
		if !isFinite(c) {
			return domain.IndicatorSet{}, &domain.ComputationError{Indicator: "closes", Err: errNonFinite}
		}
	}

	macd, macdSignal := macdApprox(window)
	upper, lower := bollingerBands(window)
	set := domain.IndicatorSet{
		RSI:            rsi(window),
		SMA:            mean(window[len(window)-smaPeriod:]),
		MACD:           macd,
		MACDSignal:     macdSignal,
		BollingerUpper: upper,
		BollingerLower: lower,
		CurrentPrice:   window[len(window)-1],
	}
	if err := checkFinite(set); err != nil {
		return domain.IndicatorSet{}, err
	}
	return set, nil
}

// ComputeFromCandles extracts closes and delegates to Compute.
func ComputeFromCandles(candles []domain.Candle) (domain.IndicatorSet, error) {
	return Compute(extractCloses(candles))
}

func extractCloses(candles []domain.Candle) []float64 {
	values := make([]float64, len(candles))
	for i := range candles {
		values[i] = candles[i].Close
	}
	return values
}

// rsi averages gains and losses over the last rsiPeriod differences. A window
// without losses reports 100, flat windows included.
func rsi(closes []float64) float64 {
	var gainSum, lossSum float64
	for i := len(closes) - rsiPeriod; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	return rsiFromAvg(gainSum/rsiPeriod, lossSum/rsiPeriod)
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// macdApprox returns the fast-minus-slow mean spread and its signal line, the
// average of that spread re-evaluated at the last macdSignalPeriod offsets.
func macdApprox(closes []float64) (macd, signal float64) {
	n := len(closes)
	macd = mean(closes[n-macdFastPeriod:]) - mean(closes[n-macdSlowPeriod:])
	var sum float64
	for i := 0; i < macdSignalPeriod; i++ {
		end := n - i
		sum += mean(closes[clampStart(end-macdFastPeriod):end]) - mean(closes[clampStart(end-macdSlowPeriod):end])
	}
	return macd, sum / macdSignalPeriod
}

func clampStart(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func bollingerBands(closes []float64) (upper, lower float64) {
	mid, std := meanStd(closes[len(closes)-bollingerPeriod:])
	return mid + bollingerStdDevs*std, mid - bollingerStdDevs*std
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (m, std float64) {
	m = mean(values)
	if len(values) < 2 {
		return m, 0
	}
	for _, v := range values {
		d := v - m
		std += d * d
	}
	return m, math.Sqrt(std / float64(len(values)))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkFinite(set domain.IndicatorSet) error {
	fields := []struct {
		name  string
		value float64
	}{
		{domain.IndicatorRSI, set.RSI},
		{domain.IndicatorSMA, set.SMA},
		{domain.IndicatorMACD, set.MACD},
		{domain.IndicatorMACD, set.MACDSignal},
		{domain.IndicatorBollinger, set.BollingerUpper},
		{domain.IndicatorBollinger, set.BollingerLower},
	}
	for _, f := range fields {
		if !isFinite(f.value) {
			return &domain.ComputationError{Indicator: f.name, Err: errNonFinite}
		}
	}
	return nil
}
