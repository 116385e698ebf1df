package events

import (
	"context"
	"encoding/json"
	"fmt"

	awspkg "github.com/jonbarlo/onlineshop-api/pkg/aws"
)

// SNSPublisher publishes events to an SNS topic with the event type as a
// message attribute.
type SNSPublisher struct {
	client   awspkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client awspkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	return p.client.Publish(ctx, p.topicArn, data, map[string]string{
		"event_type": event.Type,
	})
}

func (p *SNSPublisher) Close() error { return nil }
