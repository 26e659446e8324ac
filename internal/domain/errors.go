package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedAsset = errors.New("unsupported asset")
	ErrLoginFailed      = errors.New("login failed! check your broker email and password")
	ErrNoSession        = errors.New("please login with your broker email and password first")
)

// InsufficientDataError is returned when a candle window is too short for
// the indicator set.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient candle data: have %d closes, need %d", e.Have, e.Need)
}

// UpstreamUnavailableError wraps any failure to reach the broker feed.
type UpstreamUnavailableError struct {
	Op  string
	Err error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upstream unavailable: %s", e.Op)
	}
	return fmt.Sprintf("upstream unavailable: %s: %v", e.Op, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

// ComputationError reports a non-finite or otherwise invalid indicator result.
type ComputationError struct {
	Indicator string
	Err       error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("compute %s: %v", e.Indicator, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// FallbackReason classifies the error that routed a request to the
// fallback generator.
func FallbackReason(err error) string {
	var insufficient *InsufficientDataError
	var upstream *UpstreamUnavailableError
	var computation *ComputationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &insufficient):
		return "insufficient_data"
	case errors.As(err, &upstream):
		return "upstream_unavailable"
	case errors.As(err, &computation):
		return "computation_error"
	default:
		return "unknown"
	}
}
