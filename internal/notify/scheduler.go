// Package notify polls for events that are about to start and pushes
// reminder messages to connected clients.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"agenda/internal/model"
	"agenda/internal/store"
	"agenda/internal/websocket"
)

// Scheduler periodically checks today's events for due reminders.
type Scheduler struct {
	mu       sync.Mutex
	events   *store.EventStore
	hub      *websocket.Hub
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	sent    map[int64]struct{}
	sentDay model.Date
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(events *store.EventStore, hub *websocket.Hub, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		events:   events,
		hub:      hub,
		logger:   logger,
		interval: 30 * time.Second,
		sent:     make(map[int64]struct{}),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	today := model.DateOf(now)

	s.mu.Lock()
	if !s.sentDay.Equal(today) {
		s.sent = make(map[int64]struct{})
		s.sentDay = today
	}
	s.mu.Unlock()

	events, err := s.events.ListByDate(today)
	if err != nil {
		s.logger.Error("reminder scheduler: list events", "error", err)
		return
	}

	for _, e := range events {
		if !Due(e, now) {
			continue
		}

		s.mu.Lock()
		_, already := s.sent[e.ID]
		if !already {
			s.sent[e.ID] = struct{}{}
		}
		s.mu.Unlock()
		if already {
			continue
		}

		minutes := MinutesUntil(e, now)
		s.logger.Info("reminder", "event_id", e.ID, "title", e.Title, "minutes", minutes)
		s.hub.Broadcast(websocket.ReminderMessage(e.ID, e.Title, minutes))
	}
}

// MinutesUntil returns how many whole minutes remain before the event
// starts; negative once it has started.
func MinutesUntil(e model.Event, now time.Time) int {
	return int(e.StartTime) - (now.Hour()*60 + now.Minute())
}

// Due reports whether a reminder for e should fire at now: the event is
// today, has a notification lead time, has not started yet, and starts
// within the lead time.
func Due(e model.Event, now time.Time) bool {
	if e.NotificationTime <= 0 {
		return false
	}
	if !e.Date.Equal(model.DateOf(now)) {
		return false
	}
	minutes := MinutesUntil(e, now)
	return minutes > 0 && minutes <= e.NotificationTime
}
