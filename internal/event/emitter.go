package event

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Emitter delivers events synchronously to subscribers in priority order.
type Emitter struct {
	mu   sync.RWMutex
	subs []*Subscription
}

// NewEmitter creates an emitter without subscribers.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe registers fn for events whose topic matches pattern.
func (em *Emitter) Subscribe(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	if fn == nil {
		return nil, ErrNilHandler
	}
	cfg := subscriptionConfig{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&cfg)
	}
	sub := newSubscription(em, pattern, fn, cfg)

	em.mu.Lock()
	defer em.mu.Unlock()
	em.subs = append(em.subs, sub)
	sort.SliceStable(em.subs, func(i, j int) bool {
		return em.subs[i].config.priority < em.subs[j].config.priority
	})
	return sub, nil
}

// MustSubscribe is Subscribe for static patterns and non-nil handlers. It
// panics on error.
func (em *Emitter) MustSubscribe(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) *Subscription {
	sub, err := em.Subscribe(pattern, fn, opts...)
	if err != nil {
		tracer().Errorf("subscribe %q: %v", pattern, err)
		panic(err)
	}
	return sub
}

func (em *Emitter) remove(sub *Subscription) {
	em.mu.Lock()
	defer em.mu.Unlock()
	for i, s := range em.subs {
		if s == sub {
			em.subs = append(em.subs[:i:i], em.subs[i+1:]...)
			return
		}
	}
}

// Emit publishes payload on topic. Subscribers added during delivery do
// not receive the event; subscribers cancelled during delivery are
// skipped.
func (em *Emitter) Emit(ctx context.Context, topic Topic, payload any) error {
	em.mu.RLock()
	var targets []*Subscription
	for _, s := range em.subs {
		if topic.Matches(s.pattern) {
			targets = append(targets, s)
		}
	}
	em.mu.RUnlock()

	ev := Event{Topic: topic, Payload: payload}
	for _, s := range targets {
		if !s.IsActive() {
			continue
		}
		if s.config.once {
			s.Cancel()
		}
		if err := s.handler(ctx, ev); err != nil {
			tracer().Debugf("handler %s on %s: %v", s.id, topic, err)
			return &HandlerError{SubscriptionID: s.id, Topic: topic, Err: err}
		}
	}
	return nil
}

// Count returns the number of subscriptions.
func (em *Emitter) Count() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.subs)
}

// CountByTopic returns the number of subscriptions matching topic.
func (em *Emitter) CountByTopic(topic Topic) int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	n := 0
	for _, s := range em.subs {
		if topic.Matches(s.pattern) {
			n++
		}
	}
	return n
}
