package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appser/appser-store/internal/events"
	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/pkg/metrics"
)

const refreshTimeout = 5 * time.Second

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), refreshTimeout)
}

// Publish pushes a counter change to every viewer of the listing. It makes
// the hub an events.Publisher.
func (s *Server) Publish(_ context.Context, ev events.Event) error {
	if s.manager.GetRoomClientCount(ev.AppID) == 0 {
		return nil
	}

	counters := ev.Counters
	if counters.AppID == "" {
		counters.AppID = ev.AppID
	}
	msg := s.statsMessage(MessageTypeStats, counters)
	if ev.Review != nil {
		msg.Type = MessageTypeReview
		line := render.ReviewLine(*ev.Review)
		msg.Review = &ReviewPayload{Stars: line.Stars, Comment: line.Comment, Date: line.Date}
	}
	msg.Viewers = s.manager.GetRoomClientCount(ev.AppID)

	data, err := json.Marshal(msg)
	if err != nil {
		metrics.IncrementBroadcastFails()
		return fmt.Errorf("encode live stats: %w", err)
	}

	sent := s.manager.broadcastRoom(ev.AppID, data)
	metrics.IncrementBroadcasts()
	s.log.Debug("live_stats_broadcast", "app_id", ev.AppID, "type", string(ev.Type), "viewers", sent)
	return nil
}

var _ events.Publisher = (*Server)(nil)
