package generation

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// Rule maps substrings found in a failure message to a Kind. Rules are
// consulted in order; the first rule with a matching substring wins.
type Rule struct {
	Kind       Kind
	Substrings []string
}

// DefaultRules is the substring table used when a failure carries no
// structured status that maps to a Kind.
var DefaultRules = []Rule{
	{Kind: KindAuthFailure, Substrings: []string{
		"api key", "api_key", "leaked", "permission_denied", "unauthenticated",
		"unauthorized", "forbidden", "401", "403",
	}},
	{Kind: KindQuotaExceeded, Substrings: []string{
		"quota", "rate limit", "rate-limit", "resource_exhausted", "resource has been exhausted",
		"too many requests", "429",
	}},
	{Kind: KindTimeout, Substrings: []string{
		"timeout", "timed out", "deadline exceeded", "deadline_exceeded", "aborted",
	}},
	{Kind: KindServerError, Substrings: []string{
		"unavailable", "internal error", "overloaded", "econnrefused", "connection refused",
		"connection reset", "network", "500", "502", "503",
	}},
}

// statusKinds maps the service's symbolic statuses to kinds.
var statusKinds = map[string]Kind{
	"UNAUTHENTICATED":    KindAuthFailure,
	"PERMISSION_DENIED":  KindAuthFailure,
	"RESOURCE_EXHAUSTED": KindQuotaExceeded,
	"DEADLINE_EXCEEDED":  KindTimeout,
	"UNAVAILABLE":        KindServerError,
	"INTERNAL":           KindServerError,
}

// Classifier turns transport failures into kinds.
type Classifier struct {
	Rules []Rule
}

// NewClassifier returns a Classifier using DefaultRules.
func NewClassifier() *Classifier {
	return &Classifier{Rules: DefaultRules}
}

// Classify determines the Kind of a transport failure. Structured status
// information is used first; substring rules are the fallback.
func (c *Classifier) Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var tErr *TransportError
	if errors.As(err, &tErr) {
		if kind, ok := kindForStatusCode(tErr.StatusCode); ok {
			return kind
		}
		if kind, ok := statusKinds[strings.ToUpper(tErr.Status)]; ok {
			return kind
		}
		return c.matchRules(tErr.Status + " " + tErr.Message)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindServerError
	}

	return c.matchRules(err.Error())
}

func kindForStatusCode(code int) (Kind, bool) {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuthFailure, true
	case code == http.StatusTooManyRequests:
		return KindQuotaExceeded, true
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return KindTimeout, true
	case code >= 500 && code <= 599:
		return KindServerError, true
	default:
		return "", false
	}
}

func (c *Classifier) matchRules(message string) Kind {
	lower := strings.ToLower(message)
	for _, rule := range c.Rules {
		for _, s := range rule.Substrings {
			if strings.Contains(lower, s) {
				return rule.Kind
			}
		}
	}
	return KindUnknown
}
