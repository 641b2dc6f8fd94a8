package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// ClaimEvent is published to the reward-claims topic whenever a claim is
// created or resolved. Downstream analytics and fraud pipelines consume it;
// nothing in this service does.
type ClaimEvent struct {
	ClaimID        string    `json:"claimId"`
	ViewerID       string    `json:"viewerId"`
	AdID           string    `json:"adId"`
	AdType         string    `json:"adType"`
	WalletAmount   float64   `json:"walletAmount"`
	DonationAmount float64   `json:"donationAmount"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher writes claim events to Kafka. With no broker configured it
// degrades to a no-op, same as the cache layer.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokerURL, topic string) *Publisher {
	if brokerURL == "" {
		log.Println("kafka: no broker configured, claim events disabled")
		return &Publisher{}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokerURL),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
			// Async keeps WriteMessages off the claim request path; the
			// writer's default 1s batch timeout would otherwise stall every
			// credited claim. Delivery errors land in Completion.
			Async:        true,
			BatchTimeout: 100 * time.Millisecond,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					log.Printf("kafka: deliver %d claim event(s): %v", len(messages), err)
				}
			},
		},
	}
}

// Enabled reports whether a broker is configured.
func (p *Publisher) Enabled() bool {
	return p.writer != nil
}

// PublishClaim enqueues one claim event, keyed by viewer so a viewer's
// events stay ordered within a partition. The async writer returns before
// delivery; failures are logged from the completion callback, never
// propagated — the credit transaction has already committed.
func (p *Publisher) PublishClaim(ctx context.Context, evt ClaimEvent) {
	if p.writer == nil {
		return
	}
	value, err := json.Marshal(evt)
	if err != nil {
		log.Printf("kafka: marshal claim event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.ViewerID),
		Value: value,
	}); err != nil {
		log.Printf("kafka: enqueue claim event: %v", err)
	}
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
