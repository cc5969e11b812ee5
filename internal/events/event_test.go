package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/appser/appser-store/internal/events"
	"github.com/stretchr/testify/assert"
)

func TestFanoutDeliversToEverySink(t *testing.T) {
	var got []string
	sink := func(name string) events.Publisher {
		return events.PublisherFunc(func(_ context.Context, ev events.Event) error {
			got = append(got, name+":"+ev.AppID)
			return nil
		})
	}

	f := events.Fanout{sink("ws"), nil, sink("amqp")}
	err := f.Publish(context.Background(), events.Event{Type: events.TypeLike, AppID: "telegram"})

	assert.NoError(t, err)
	assert.Equal(t, []string{"ws:telegram", "amqp:telegram"}, got)
}

func TestFanoutJoinsErrorsAndKeepsGoing(t *testing.T) {
	boom := errors.New("broker down")
	delivered := false
	f := events.Fanout{
		events.PublisherFunc(func(context.Context, events.Event) error { return boom }),
		events.PublisherFunc(func(context.Context, events.Event) error { delivered = true; return nil }),
	}

	err := f.Publish(context.Background(), events.Event{Type: events.TypeDownload})

	assert.ErrorIs(t, err, boom)
	assert.True(t, delivered)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, events.Nop.Publish(context.Background(), events.Event{}))
}
