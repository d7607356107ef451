package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	bus.Subscribe(PrescriptionCreated, func(interface{}) { order = append(order, 1) })
	bus.Subscribe(PrescriptionCreated, func(interface{}) { order = append(order, 2) })
	bus.Subscribe(PrescriptionCreated, func(interface{}) { order = append(order, 3) })

	bus.Publish(PrescriptionCreated, "payload")
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestPublishSkipsOtherEvents(t *testing.T) {
	bus := NewBus()

	var got []interface{}
	bus.Subscribe(PaymentRecorded, func(payload interface{}) { got = append(got, payload) })

	bus.Publish(PrescriptionCreated, "a")
	bus.Publish(PaymentRecorded, "b")
	require.Equal(t, []interface{}{"b"}, got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	count := 0
	unsubscribe := bus.Subscribe(StockLow, func(interface{}) { count++ })

	bus.Publish(StockLow, nil)
	unsubscribe()
	bus.Publish(StockLow, nil)
	require.Equal(t, 1, count)
}

func TestSubscribeAllSeesEveryEvent(t *testing.T) {
	bus := NewBus()

	type delivery struct {
		event   string
		payload interface{}
	}
	var seen []delivery
	bus.SubscribeAll(func(event string, payload interface{}) {
		seen = append(seen, delivery{event: event, payload: payload})
	})

	bus.Publish(StockAdjusted, 1)
	bus.Publish(PrescriptionDispensed, 2)

	require.Equal(t, []delivery{
		{event: StockAdjusted, payload: 1},
		{event: PrescriptionDispensed, payload: 2},
	}, seen)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus()
	require.NotPanics(t, func() { bus.Publish(PrescriptionCancelled, nil) })
}
