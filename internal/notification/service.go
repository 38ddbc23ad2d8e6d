package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain/entities"
)

// DefaultTTL is how long a notification stays visible without dismissal
const DefaultTTL = 4000 * time.Millisecond

// EventType tells observers what happened to a notification
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event is delivered to observers after every change of the list
type Event struct {
	Type         EventType
	Notification entities.Notification
}

// Service holds the ordered list of live notifications. Each entry owns one
// expiry timer; whichever of expiry or Dismiss runs first removes the entry
// and the other becomes a no-op.
type Service struct {
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	// dispatch is held across a change and its event so observers see
	// events in the order the list changed
	dispatch sync.Mutex

	mu        sync.Mutex
	entries   []entities.Notification
	timers    map[string]*time.Timer
	observers []func(Event)
	closed    bool
}

// Option customizes a Service
type Option func(*Service)

// WithTTL overrides the expiry delay
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the CreatedAt source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an empty notification service
func NewService(logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		ttl:    DefaultTTL,
		logger: logger,
		now:    time.Now,
		timers: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer. Observers run outside the list lock, one
// event at a time, and must not block or call back into Enqueue or Dismiss.
func (s *Service) Subscribe(observer func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Enqueue appends a notification, schedules its removal and returns its id
func (s *Service) Enqueue(title, description string, kind entities.NotificationKind) string {
	if !kind.Valid() {
		kind = entities.NotificationInfo
	}

	n := entities.Notification{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Kind:        kind,
		CreatedAt:   s.now(),
	}

	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("Notification dropped after close", zap.String("title", title))
		return n.ID
	}
	s.entries = append(s.entries, n)
	id := n.ID
	s.timers[id] = time.AfterFunc(s.ttl, func() {
		s.expire(id)
	})
	observers := s.observers
	s.mu.Unlock()

	s.logger.Info("Notification enqueued",
		zap.String("id", n.ID),
		zap.String("kind", string(n.Kind)),
		zap.String("title", n.Title))

	emit(observers, Event{Type: EventAdded, Notification: n})
	return n.ID
}

// Dismiss removes the notification if it is still present
func (s *Service) Dismiss(id string) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	timer, ok := s.timers[id]
	if ok {
		timer.Stop()
	}
	n, removed := s.removeLocked(id)
	observers := s.observers
	s.mu.Unlock()

	if removed {
		s.logger.Debug("Notification dismissed", zap.String("id", id))
		emit(observers, Event{Type: EventRemoved, Notification: n})
	}
}

// Snapshot returns the live notifications in enqueue order
func (s *Service) Snapshot() []entities.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.Notification, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of live notifications
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops every pending timer and drops the list. Later enqueues are ignored.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.entries = nil
	s.closed = true
}

func (s *Service) expire(id string) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	n, removed := s.removeLocked(id)
	observers := s.observers
	s.mu.Unlock()

	if removed {
		s.logger.Debug("Notification expired", zap.String("id", id))
		emit(observers, Event{Type: EventRemoved, Notification: n})
	}
}

func (s *Service) removeLocked(id string) (entities.Notification, bool) {
	delete(s.timers, id)
	for i, n := range s.entries {
		if n.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return n, true
		}
	}
	return entities.Notification{}, false
}

func emit(observers []func(Event), event Event) {
	for _, observer := range observers {
		observer(event)
	}
}
