package governance

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrDenied is wrapped by callers that refuse an action on policy grounds.
var ErrDenied = errors.New("denied by navigation policy")

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request contains the context of a navigation to be evaluated.
type Request struct {
	URL     string
	Journey string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates navigations against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine denies hosts and URL patterns; everything else is allowed.
type DefaultPolicyEngine struct {
	DeniedHosts map[string]bool
	DeniedRegex []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedHosts: make(map[string]bool),
		DeniedRegex: make([]*regexp.Regexp, 0),
	}
}

func (e *DefaultPolicyEngine) DenyHost(host string) {
	e.DeniedHosts[strings.ToLower(host)] = true
}

func (e *DefaultPolicyEngine) DenyURL(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return Result{}, fmt.Errorf("invalid url %q: %w", req.URL, err)
	}

	if e.DeniedHosts[strings.ToLower(u.Hostname())] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Host '%s' is restricted by monitor policy", u.Hostname()),
		}, nil
	}

	for _, re := range e.DeniedRegex {
		if re.MatchString(req.URL) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("URL matches restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}

// Check evaluates req and converts a deny into an error wrapping ErrDenied.
func Check(ctx context.Context, engine PolicyEngine, req Request) error {
	if engine == nil {
		return nil
	}
	res, err := engine.Evaluate(ctx, req)
	if err != nil {
		return err
	}
	if res.Effect == EffectDeny {
		return fmt.Errorf("%w: %s", ErrDenied, res.Reason)
	}
	return nil
}
