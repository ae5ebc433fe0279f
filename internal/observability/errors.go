package observability

import (
	"context"
	"errors"
	"net"
	"strings"
)

const (
	ErrorNetwork    = "network"
	ErrorParsing    = "parsing"
	ErrorAI         = "ai"
	ErrorRateLimit  = "rate_limit"
	ErrorStore      = "store"
	ErrorValidation = "validation"
	ErrorUnknown    = "unknown"
)

// Kinded is implemented by domain errors that know their own kind.
type Kinded interface {
	Kind() string
}

// ClassifyError maps an error onto one of the Error* kinds.
func ClassifyError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorNetwork
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota"):
		return ErrorRateLimit
	case strings.Contains(msg, "parse failed") ||
		strings.Contains(msg, "decode failed") ||
		strings.Contains(msg, "unmarshal") ||
		strings.Contains(msg, "invalid character"):
		return ErrorParsing
	}
	return ErrorUnknown
}
