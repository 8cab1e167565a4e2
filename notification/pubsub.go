package notification

import (
	"context"
	"encoding/json"

	"github.com/rckrdmrd/glit-backend-sub002/cache"
	"github.com/rckrdmrd/glit-backend-sub002/model"
)

// Channel is the pub/sub channel carrying userID's notifications.
func Channel(userID string) string {
	return "notify:" + userID
}

// PubSubPublisher publishes notifications as JSON on the user's channel.
type PubSubPublisher struct {
	ps cache.PubSub
}

// NewPubSubPublisher creates a PubSubPublisher.
func NewPubSubPublisher(ps cache.PubSub) *PubSubPublisher {
	return &PubSubPublisher{ps: ps}
}

func (p *PubSubPublisher) Publish(ctx context.Context, n *model.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.ps.Publish(ctx, Channel(n.UserID), string(body))
}
