// Package detect is the anomaly rule engine. Each rule inspects the
// normalized case independently and emits at most one evidence-backed
// detection. Rules never see each other's output and the engine never lets
// one rule's failure abort the rest.
package detect

import (
	"log"

	"wyngai/internal/domain"
)

// Rule is the interface for a single built-in detection rule.
type Rule interface {
	Check(ctx *CaseContext) *domain.Detection
	RuleKey() string
	RuleName() string
	Severity() domain.Severity
}

// BuiltinRule wraps a detection function and its metadata for the registry.
// The wrapper stamps the rule key and severity onto whatever the function
// returns, so rule bodies only build explanation, evidence and citations.
type BuiltinRule struct {
	key  string
	name string
	sev  domain.Severity
	fn   func(*CaseContext) *domain.Detection
}

func (b *BuiltinRule) Check(ctx *CaseContext) *domain.Detection {
	d := b.fn(ctx)
	if d == nil {
		return nil
	}
	d.RuleKey = b.key
	d.Severity = b.sev
	return d
}
func (b *BuiltinRule) RuleKey() string           { return b.key }
func (b *BuiltinRule) RuleName() string          { return b.name }
func (b *BuiltinRule) Severity() domain.Severity { return b.sev }

// Registry holds detection rules in registration order. Order only affects
// the order of the output slice, never whether a rule fires.
type Registry struct {
	rules map[string]Rule
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule to the registry. Re-registering a key replaces the
// rule without changing its position.
func (r *Registry) Register(rule Rule) {
	if _, exists := r.rules[rule.RuleKey()]; !exists {
		r.order = append(r.order, rule.RuleKey())
	}
	r.rules[rule.RuleKey()] = rule
}

// Get returns the rule for a given rule key, or nil if not found.
func (r *Registry) Get(key string) Rule {
	return r.rules[key]
}

// All returns all registered rules in registration order.
func (r *Registry) All() []Rule {
	out := make([]Rule, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.rules[key])
	}
	return out
}

// NewBuiltinRegistry returns a Registry loaded with every built-in rule.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range AllBuiltinRules() {
		r.Register(rule)
	}
	return r
}

// AllBuiltinRules returns all built-in detection rules, grouped by technique.
func AllBuiltinRules() []*BuiltinRule {
	var all []*BuiltinRule
	all = append(all, MatchRules()...)
	all = append(all, PairingRules()...)
	all = append(all, ModifierRules()...)
	all = append(all, WindowRules()...)
	all = append(all, ThresholdRules()...)
	all = append(all, ArithmeticRules()...)
	all = append(all, RemarkRules()...)
	all = append(all, BillingSurfaceRules()...)
	return all
}

// Engine runs every registered rule against a case.
type Engine struct {
	registry *Registry
}

// NewEngine creates a detection engine over a registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Run executes all rules and collects their detections. A panicking rule is
// logged and skipped; the remaining rules still run.
func (e *Engine) Run(ctx *CaseContext) []domain.Detection {
	detections := make([]domain.Detection, 0)
	for _, rule := range e.registry.All() {
		if d := e.checkOne(rule, ctx); d != nil {
			detections = append(detections, *d)
		}
	}
	return detections
}

func (e *Engine) checkOne(rule Rule, ctx *CaseContext) (d *domain.Detection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("detect.Engine: rule %s panicked: %v", rule.RuleKey(), r)
			d = nil
		}
	}()
	return rule.Check(ctx)
}
