package event

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription is receiving events.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStatePaused means the subscription is temporarily not receiving events.
	SubscriptionStatePaused

	// SubscriptionStateCancelled means the subscription has been permanently cancelled.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStatePaused:
		return "paused"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// subscriptionConfig contains configuration for a subscription.
type subscriptionConfig struct {
	priority Priority
	once     bool
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscriptionConfig)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.priority = p
	}
}

// Once cancels the subscription after its first delivery.
func Once() SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.once = true
	}
}

// Subscription is a registered handler. Cancel removes it from its emitter.
type Subscription struct {
	id      string
	pattern Topic
	handler HandlerFunc
	config  subscriptionConfig
	state   atomic.Int32
	emitter *Emitter
}

func newSubscription(em *Emitter, pattern Topic, fn HandlerFunc, cfg subscriptionConfig) *Subscription {
	return &Subscription{
		id:      uuid.NewString(),
		pattern: pattern,
		handler: fn,
		config:  cfg,
		emitter: em,
	}
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed topic pattern.
func (s *Subscription) Topic() Topic { return s.pattern }

// Priority returns the subscription priority.
func (s *Subscription) Priority() Priority { return s.config.priority }

// State returns the current subscription state.
func (s *Subscription) State() SubscriptionState { return SubscriptionState(s.state.Load()) }

// IsActive reports whether the subscription receives events.
func (s *Subscription) IsActive() bool { return s.State() == SubscriptionStateActive }

// Pause temporarily stops delivery to this subscription.
func (s *Subscription) Pause() {
	s.state.CompareAndSwap(int32(SubscriptionStateActive), int32(SubscriptionStatePaused))
}

// Resume restarts delivery after a pause.
func (s *Subscription) Resume() {
	s.state.CompareAndSwap(int32(SubscriptionStatePaused), int32(SubscriptionStateActive))
}

// Cancel permanently cancels the subscription. It is safe to call more
// than once and from inside a handler.
func (s *Subscription) Cancel() {
	if SubscriptionState(s.state.Swap(int32(SubscriptionStateCancelled))) == SubscriptionStateCancelled {
		return
	}
	s.emitter.remove(s)
}
