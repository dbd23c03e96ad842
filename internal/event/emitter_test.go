package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(log *[]string, name string) HandlerFunc {
	return func(ctx context.Context, ev Event) error {
		*log = append(*log, name)
		return nil
	}
}

func TestEmitPriorityOrder(t *testing.T) {
	em := NewEmitter()
	var log []string
	em.MustSubscribe("operation", record(&log, "low"), WithPriority(PriorityLow))
	em.MustSubscribe("operation", record(&log, "normal"))
	em.MustSubscribe("operation", record(&log, "critical"), WithPriority(PriorityCritical))
	em.MustSubscribe("operation", record(&log, "low2"), WithPriority(PriorityLow))
	em.MustSubscribe("operation", record(&log, "high"), WithPriority(PriorityHigh))

	require.NoError(t, em.Emit(context.Background(), "operation", nil))
	assert.Equal(t, []string{"critical", "high", "normal", "low", "low2"}, log)
}

func TestEmitTopicMatching(t *testing.T) {
	tests := []struct {
		pattern Topic
		topic   Topic
		match   bool
	}{
		{"change", "change", true},
		{"change", "change.data", false},
		{"change.*", "change.data", true},
		{"change.**", "change", true},
		{"change.**", "change.data", true},
		{"*.update", "marker.update", true},
		{"**", "a.b.c", true},
		{"marker.update", "marker", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.pattern)+"/"+string(tt.topic), func(t *testing.T) {
			assert.Equal(t, tt.match, tt.topic.Matches(tt.pattern))
		})
	}
}

func TestCancelDuringEmit(t *testing.T) {
	em := NewEmitter()
	var log []string
	var second *Subscription
	em.MustSubscribe("change", func(ctx context.Context, ev Event) error {
		log = append(log, "first")
		second.Cancel()
		return nil
	}, WithPriority(PriorityHigh))
	second = em.MustSubscribe("change", record(&log, "second"))

	require.NoError(t, em.Emit(context.Background(), "change", nil))
	assert.Equal(t, []string{"first"}, log)
	assert.Equal(t, 1, em.Count())
	assert.Equal(t, SubscriptionStateCancelled, second.State())
	second.Cancel()
	assert.Equal(t, 1, em.Count())
}

func TestOnceAndPause(t *testing.T) {
	em := NewEmitter()
	var log []string
	em.MustSubscribe("change", record(&log, "once"), Once())
	paused := em.MustSubscribe("change", record(&log, "paused"))
	paused.Pause()

	ctx := context.Background()
	require.NoError(t, em.Emit(ctx, "change", nil))
	require.NoError(t, em.Emit(ctx, "change", nil))
	assert.Equal(t, []string{"once"}, log)

	paused.Resume()
	require.NoError(t, em.Emit(ctx, "change", nil))
	assert.Equal(t, []string{"once", "paused"}, log)
}

func TestHandlerErrorStopsDelivery(t *testing.T) {
	em := NewEmitter()
	boom := errors.New("boom")
	var log []string
	sub := em.MustSubscribe("operation", func(ctx context.Context, ev Event) error { return boom })
	em.MustSubscribe("operation", record(&log, "after"), WithPriority(PriorityLow))

	err := em.Emit(context.Background(), "operation", 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	var herr *HandlerError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, sub.ID(), herr.SubscriptionID)
	assert.Equal(t, Topic("operation"), herr.Topic)
	assert.Empty(t, log)
}

func TestSubscribeValidation(t *testing.T) {
	em := NewEmitter()
	_, err := em.Subscribe("", record(new([]string), "x"))
	assert.True(t, errors.Is(err, ErrInvalidTopic))
	_, err = em.Subscribe("a..b", record(new([]string), "x"))
	assert.True(t, errors.Is(err, ErrInvalidTopic))
	_, err = em.Subscribe("a", nil)
	assert.True(t, errors.Is(err, ErrNilHandler))
	assert.Panics(t, func() { em.MustSubscribe("", nil) })
	assert.Equal(t, 0, em.Count())
}

func TestPayloadDelivered(t *testing.T) {
	em := NewEmitter()
	var got Event
	em.MustSubscribe("marker.*", func(ctx context.Context, ev Event) error {
		got = ev
		return nil
	})
	require.NoError(t, em.Emit(context.Background(), "marker.update", "comment:1"))
	assert.Equal(t, Topic("marker.update"), got.Topic)
	assert.Equal(t, "comment:1", got.Payload)
	assert.Equal(t, 1, em.CountByTopic("marker.update"))
	assert.Equal(t, 0, em.CountByTopic("change"))
}
