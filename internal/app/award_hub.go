package app

import (
	"context"
	"sync"

	"edu-quiz-service/internal/domain"
)

// AwardHub fans newly awarded badges out to in-process subscribers, keyed by user.
type AwardHub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[chan domain.BadgeAward]struct{}
}

func NewAwardHub() *AwardHub {
	return &AwardHub{subscribers: make(map[int64]map[chan domain.BadgeAward]struct{})}
}

// Subscribe returns a channel that receives the user's badge awards.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *AwardHub) Subscribe(userID int64) (<-chan domain.BadgeAward, func()) {
	ch := make(chan domain.BadgeAward, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[userID]
	if !ok {
		subs = make(map[chan domain.BadgeAward]struct{})
		h.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[userID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, userID)
		}
	}
	return ch, cancel
}

// PublishAward delivers an award without blocking; a full subscriber buffer
// drops its oldest pending award.
func (h *AwardHub) PublishAward(_ context.Context, award domain.BadgeAward) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[award.UserID] {
		select {
		case ch <- award:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- award
		}
	}
}

// Subscribers reports how many subscriptions a user has open.
func (h *AwardHub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
