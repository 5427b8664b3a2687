// Package notify carries transient, user-dismissable notifications. Nothing
// here blocks canvas interaction: entries expire on their own, and at most
// one optional action (for example an undo) rides along with a message.
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Level classifies a notification
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Action is an optional callback attached to a notification
type Action struct {
	Label string
	Run   func()
}

// Notification is a single transient message
type Notification struct {
	ID        string
	Level     Level
	Message   string
	Action    *Action
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Notifier owns the active notification set
type Notifier struct {
	mu     sync.Mutex
	items  map[string]*Notification
	ttl    time.Duration
	logger *zap.Logger
}

// NewNotifier creates a notifier whose entries expire after ttl
func NewNotifier(ttl time.Duration, logger *zap.Logger) *Notifier {
	return &Notifier{
		items:  make(map[string]*Notification),
		ttl:    ttl,
		logger: logger,
	}
}

// Push adds a notification and returns its id. The entry auto-expires.
func (n *Notifier) Push(level Level, message string, action *Action) string {
	now := time.Now()
	item := &Notification{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		Action:    action,
		CreatedAt: now,
		ExpiresAt: now.Add(n.ttl),
	}

	n.mu.Lock()
	n.items[item.ID] = item
	n.mu.Unlock()

	if level == LevelError {
		n.logger.Warn("notification", zap.String("message", message))
	}

	time.AfterFunc(n.ttl, func() { n.Dismiss(item.ID) })
	return item.ID
}

// Dismiss removes a notification; dismissing an unknown id is a no-op
func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	delete(n.items, id)
	n.mu.Unlock()
}

// Invoke runs a notification's action, if it has one, and dismisses it
func (n *Notifier) Invoke(id string) {
	n.mu.Lock()
	item, ok := n.items[id]
	n.mu.Unlock()
	if !ok {
		return
	}
	if item.Action != nil && item.Action.Run != nil {
		item.Action.Run()
	}
	n.Dismiss(id)
}

// Active returns the live notifications, oldest first
func (n *Notifier) Active() []*Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Notification, 0, len(n.items))
	for _, item := range n.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
