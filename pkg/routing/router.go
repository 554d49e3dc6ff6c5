// Package routing decides which worker handles a task and which execution
// mode to use. The Router is a pure first-match-wins scan over an ordered,
// immutable rule list; the Classifier is a best-effort keyword heuristic.
package routing

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoRoute is returned when no rule matches and no default worker is
// configured. This is a configuration error surfaced to the caller, never
// silently defaulted.
var ErrNoRoute = errors.New("no routing rule matched and no default worker configured")

// Rule pairs a regex pattern with a target worker name. Rule order is
// significant: the first matching rule wins.
type Rule struct {
	Pattern string
	Worker  string
}

// compiledRule is a Rule with its pattern compiled for matching.
type compiledRule struct {
	re     *regexp.Regexp
	worker string
}

// Router routes task text to a worker name by ordered pattern matching.
// Immutable after construction; safe for concurrent use.
type Router struct {
	rules         []compiledRule
	defaultWorker string
}

// NewRouter compiles the rule list. Patterns match case-insensitively
// against any substring of the task text and may contain any script (rules
// mixing English and CJK are common). An invalid pattern is a configuration
// error, not a rule to skip.
func NewRouter(rules []Rule, defaultWorker string) (*Router, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile routing pattern %q: %w", r.Pattern, err)
		}
		compiled = append(compiled, compiledRule{re: re, worker: r.Worker})
	}
	return &Router{rules: compiled, defaultWorker: defaultWorker}, nil
}

// Route returns the worker for the first rule whose pattern matches task,
// or the default worker when no rule matches. Returns ErrNoRoute when
// nothing matches and no default is configured.
func (r *Router) Route(task string) (string, error) {
	for _, rule := range r.rules {
		if rule.re.MatchString(task) {
			return rule.worker, nil
		}
	}
	if r.defaultWorker == "" {
		return "", ErrNoRoute
	}
	return r.defaultWorker, nil
}

// DefaultWorker returns the configured fallback worker ("" if none).
func (r *Router) DefaultWorker() string {
	return r.defaultWorker
}
