package redis

import (
	"context"
	"encoding/json"
	"log"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AwardChannel is the pub/sub channel badge awards are relayed on.
const AwardChannel = "quiz:badges:awarded"

// AwardRelay publishes badge awards over Redis pub/sub so every instance can
// push them to its own WebSocket subscribers.
//   - PublishAward is what the evaluator calls.
//   - Run consumes the channel and hands each award to the local publisher.
type AwardRelay struct {
	client *redis.Client
	local  app.AwardPublisher
}

func NewAwardRelay(client *redis.Client, local app.AwardPublisher) *AwardRelay {
	return &AwardRelay{client: client, local: local}
}

// PublishAward is best effort; a failed publish is logged and dropped.
func (r *AwardRelay) PublishAward(ctx context.Context, award domain.BadgeAward) {
	payload, err := json.Marshal(award)
	if err != nil {
		log.Printf("encode badge award: %v", err)
		return
	}
	if err := r.client.Publish(ctx, AwardChannel, payload).Err(); err != nil {
		log.Printf("publish badge award user=%d: %v", award.UserID, err)
	}
}

// Run relays awards until ctx is done. ready, if not nil, is closed once the
// subscription is active.
func (r *AwardRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := r.client.Subscribe(ctx, AwardChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var award domain.BadgeAward
			if err := json.Unmarshal([]byte(msg.Payload), &award); err != nil {
				log.Printf("decode badge award: %v", err)
				continue
			}
			r.local.PublishAward(ctx, award)
		}
	}
}
