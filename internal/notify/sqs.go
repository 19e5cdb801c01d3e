// Package notify publishes engagement notifications to the
// activity-timeline collaborator over SQS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ignite/engagement-tracker/internal/domain"
)

// SQSAPI is the slice of the SQS client this package uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier implements engagement.Notifier over an SQS queue. Delivery is
// synchronous and returns the real error; the service layer's best-effort
// wrapper decides that failures are logged, not propagated.
type SQSNotifier struct {
	client   SQSAPI
	queueURL string
	timeout  time.Duration
}

// NewSQSNotifier creates a notifier publishing to the given queue.
func NewSQSNotifier(client SQSAPI, queueURL string) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL, timeout: 5 * time.Second}
}

// NotifyEngagement publishes one engagement notification.
func (n *SQSNotifier) NotifyEngagement(ctx context.Context, e domain.Engagement) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal engagement: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("publish engagement: %w", err)
	}
	return nil
}
