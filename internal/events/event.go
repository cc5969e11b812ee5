package events

import (
	"context"
	"errors"
	"time"

	"github.com/appser/appser-store/pkg/models"
)

type Type string

const (
	TypeDownload Type = "download"
	TypeLike     Type = "like"
	TypeReview   Type = "review"
)

// Event is emitted after a listing counter changed in the store.
type Event struct {
	Type     Type            `json:"type"`
	AppID    string          `json:"app_id"`
	Counters models.Counters `json:"counters"`
	Review   *models.Review  `json:"review,omitempty"`
	At       time.Time       `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Nop drops every event.
var Nop Publisher = PublisherFunc(func(context.Context, Event) error { return nil })

// Fanout delivers each event to every sink and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
