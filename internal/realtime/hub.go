package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tables that produce change events. Anything else is ignored by
// subscriptions.
const (
	TableProfiles       = "profiles"
	TableJoinRequests   = "join_requests"
	TableUserSessions   = "user_sessions"
	TableTasks          = "tasks"
	TableWorkAllotments = "work_allotments"
	TableDailyLogs      = "daily_logs"
)

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeEvent describes a committed row mutation. It carries just enough
// to scope delivery; subscribers re-derive state with a full fetch.
type ChangeEvent struct {
	ID             string    `json:"id"`
	Table          string    `json:"table"`
	Action         string    `json:"action"`
	OrganizationID string    `json:"organization_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	RowID          string    `json:"row_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher is the write side of the hub, held by domain services.
type Publisher interface {
	Publish(event ChangeEvent)
}

// Filter scopes a subscription. OrganizationID and UserID are OR'd:
// an event matches when it targets the subscriber's organization or the
// subscriber directly, and its table is in the set.
type Filter struct {
	OrganizationID string
	UserID         string
	Tables         []string
}

func (f Filter) matches(e ChangeEvent) bool {
	inSet := false
	for _, t := range f.Tables {
		if t == e.Table {
			inSet = true
			break
		}
	}
	if !inSet {
		return false
	}

	if f.OrganizationID != "" && e.OrganizationID == f.OrganizationID {
		return true
	}
	if f.UserID != "" && e.UserID == f.UserID {
		return true
	}
	return false
}

// subscriberBuffer bounds how far a slow consumer can lag before events
// are dropped. Dropping is safe: consumers refetch everything per signal.
const subscriberBuffer = 16

type Subscription struct {
	id     string
	filter Filter
	ch     chan ChangeEvent
	hub    *Hub
	once   sync.Once
}

// Events is the delivery channel. Closed when the subscription ends.
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
		close(s.ch)
	})
}

// Hub is an in-process change feed. Every committed mutation is published
// here; subscriptions receive the events matching their filter.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]*Subscription),
		logger: logger,
	}
}

// Subscribe registers a filtered subscription whose lifetime is bound to
// ctx: when ctx is cancelled the subscription closes itself.
func (h *Hub) Subscribe(ctx context.Context, filter Filter) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		filter: filter,
		ch:     make(chan ChangeEvent, subscriberBuffer),
		hub:    h,
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	total := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("subscription registered",
		"subscription_id", sub.id,
		"organization_id", filter.OrganizationID,
		"user_id", filter.UserID,
		"total_subscriptions", total)

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub
}

// Publish fans the event out to matching subscriptions. Delivery is
// non-blocking: a full subscriber buffer drops the event instead of
// stalling the publisher.
func (h *Hub) Publish(event ChangeEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !sub.filter.matches(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.logger.Warn("dropping change event for slow subscriber",
				"subscription_id", sub.id,
				"table", event.Table,
				"action", event.Action)
		}
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// DashboardTables is the table set dashboard streams subscribe to.
func DashboardTables() []string {
	return []string{
		TableProfiles,
		TableJoinRequests,
		TableUserSessions,
		TableTasks,
		TableWorkAllotments,
		TableDailyLogs,
	}
}
