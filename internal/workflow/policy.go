package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// TransitionPolicy lists the order status changes an admin may not make.
// Every pair absent from the table is allowed.
type TransitionPolicy struct {
	forbidden map[OrderStatus]map[OrderStatus]struct{}
}

func NewTransitionPolicy(forbidden map[OrderStatus][]OrderStatus) TransitionPolicy {
	p := TransitionPolicy{forbidden: make(map[OrderStatus]map[OrderStatus]struct{}, len(forbidden))}
	for from, targets := range forbidden {
		set := make(map[OrderStatus]struct{}, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
		}
		p.forbidden[from] = set
	}
	return p
}

// DefaultTransitionPolicy forbids reopening or cancelling a delivered order
// and delivering a cancelled one.
func DefaultTransitionPolicy() TransitionPolicy {
	return NewTransitionPolicy(map[OrderStatus][]OrderStatus{
		OrderDelivered: {OrderPending, OrderShipping, OrderCancelled},
		OrderCancelled: {OrderDelivered},
	})
}

// ParseTransitionPolicy reads "from:to|to;from:to". An empty string yields
// the default policy.
func ParseTransitionPolicy(s string) (TransitionPolicy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTransitionPolicy(), nil
	}

	table := make(map[OrderStatus][]OrderStatus)
	for _, rule := range strings.Split(s, ";") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		fromStr, toList, ok := strings.Cut(rule, ":")
		if !ok {
			return TransitionPolicy{}, fmt.Errorf("transition rule %q: missing ':'", rule)
		}
		from, ok := ParseOrderStatus(strings.TrimSpace(fromStr))
		if !ok {
			return TransitionPolicy{}, fmt.Errorf("transition rule %q: unknown status %q", rule, fromStr)
		}
		for _, toStr := range strings.Split(toList, "|") {
			to, ok := ParseOrderStatus(strings.TrimSpace(toStr))
			if !ok {
				return TransitionPolicy{}, fmt.Errorf("transition rule %q: unknown status %q", rule, toStr)
			}
			table[from] = append(table[from], to)
		}
	}
	return NewTransitionPolicy(table), nil
}

func (p TransitionPolicy) Allows(from, to OrderStatus) bool {
	_, denied := p.forbidden[from][to]
	return !denied
}

// Forbidden returns the denied targets of from, sorted.
func (p TransitionPolicy) Forbidden(from OrderStatus) []OrderStatus {
	out := make([]OrderStatus, 0, len(p.forbidden[from]))
	for to := range p.forbidden[from] {
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
