package push

import (
	"context"
	"log"

	"github.com/google/uuid"
)

type Message struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	DeepLink string `json:"deep_link"`
}

// Deliverer is the push-delivery collaborator. Delivery is best effort per
// recipient; callers log and move on when it fails.
type Deliverer interface {
	Deliver(ctx context.Context, userID uuid.UUID, msg Message) error
}

// LogDeliverer stands in for the real transport in development and tests.
type LogDeliverer struct{}

func NewLogDeliverer() *LogDeliverer {
	return &LogDeliverer{}
}

func (d *LogDeliverer) Deliver(ctx context.Context, userID uuid.UUID, msg Message) error {
	log.Printf("[push] to=%s title=%q link=%s", userID, msg.Title, msg.DeepLink)
	return nil
}
