package eventbus_test

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/classification/pkg/eventbus"
)

type segmentCreated struct {
	ID   int64
	Code string
}

func newTestBus() eventbus.EventBus {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(log)
}

func TestPublish_MatchingHandlerReceivesEvent(t *testing.T) {
	bus := newTestBus()

	var got []segmentCreated
	bus.Subscribe(func(name string, ev segmentCreated) {
		require.Equal(t, "classification.segment.created", name)
		got = append(got, ev)
	})

	bus.Publish("classification.segment.created", segmentCreated{ID: 1, Code: "EU"})
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].ID)
}

func TestPublish_NonMatchingHandlerIgnored(t *testing.T) {
	bus := newTestBus()

	called := false
	bus.Subscribe(func(ev segmentCreated) { called = true })

	bus.Publish("classification.segment.created", segmentCreated{ID: 1})
	require.False(t, called, "two-arg publish must not reach a one-arg handler")
}

func TestPublish_NilArgBecomesZeroValue(t *testing.T) {
	bus := newTestBus()

	gotPtr := &segmentCreated{ID: 99}
	gotErr := errors.New("stale")
	bus.Subscribe(func(ev *segmentCreated, err error) {
		gotPtr = ev
		gotErr = err
	})

	bus.Publish(nil, nil)
	require.Nil(t, gotPtr)
	require.NoError(t, gotErr)
}

func TestPublish_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := newTestBus()

	bus.Subscribe(func(name string, ev segmentCreated) { panic("boom") })
	var got int
	bus.Subscribe(func(name string, ev segmentCreated) { got++ })

	bus.Publish("classification.segment.created", segmentCreated{ID: 2})
	require.Equal(t, 1, got)
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus()

	handler := func(name string, ev segmentCreated) {}
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(handler)
	require.Equal(t, 0, bus.SubscribersCount())
}

func TestClear(t *testing.T) {
	bus := newTestBus()
	bus.Subscribe(func(name string, ev segmentCreated) {})
	bus.Subscribe(func(ev segmentCreated) {})
	bus.Clear()
	require.Equal(t, 0, bus.SubscribersCount())
}
