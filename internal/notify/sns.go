package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"

	"casetrack/internal/awsutil"
)

// SNSNotifier publishes payloads to an SNS topic using a JSON message
// structure, so each subscribed protocol receives its own rendering.
type SNSNotifier struct {
	api      snsiface.SNSAPI
	topicARN string
}

// NewSNSNotifier creates a notifier for topicARN.
func NewSNSNotifier(topicARN, region, endpoint string) (*SNSNotifier, error) {
	sess, err := awsutil.NewSession(region, endpoint)
	if err != nil {
		return nil, err
	}
	return &SNSNotifier{api: sns.New(sess), topicARN: topicARN}, nil
}

func (n *SNSNotifier) Notify(ctx context.Context, p Payload) error {
	bodies, err := p.Render()
	if err != nil {
		return err
	}
	msg, err := json.Marshal(bodies)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, err = n.api.PublishWithContext(ctx, &sns.PublishInput{
		TopicArn:         aws.String(n.topicARN),
		Subject:          aws.String(Subject),
		MessageStructure: aws.String("json"),
		Message:          aws.String(string(msg)),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
