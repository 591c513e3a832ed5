package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/storeassist/safety-platform/internal/policy"
)

// MessageBus routes escalation events to responder queues by topic.
type MessageBus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// TopicForPriority maps an escalation priority to its routing topic.
func TopicForPriority(p policy.EscalationPriority) string {
	return "safety." + string(p)
}

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSBus publishes escalation events to per-priority SQS queues.
type SQSBus struct {
	client    sqsAPI
	queueURLs map[string]string
}

// NewSQSBus creates an SQS-backed bus. queueURLs maps topic names
// (e.g. "safety.critical_immediate") to queue URLs.
func NewSQSBus(client sqsAPI, queueURLs map[string]string) *SQSBus {
	if client == nil {
		panic("report: sqs bus requires a client")
	}
	return &SQSBus{client: client, queueURLs: queueURLs}
}

func (b *SQSBus) Publish(ctx context.Context, topic string, payload []byte) error {
	url, ok := b.queueURLs[topic]
	if !ok || url == "" {
		return fmt.Errorf("report: no queue configured for topic %q", topic)
	}

	_, err := b.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"topic": {
				DataType:    aws.String("String"),
				StringValue: aws.String(topic),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("report: sqs send to %q: %w", topic, err)
	}
	return nil
}

// MemoryBus collects published events in memory. Test double.
type MemoryBus struct {
	mu       sync.Mutex
	messages map[string][][]byte
	failWith error
}

// NewMemoryBus creates an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{messages: make(map[string][][]byte)}
}

func (b *MemoryBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.messages[topic] = append(b.messages[topic], payload)
	return nil
}

// Messages returns the payloads published to a topic.
func (b *MemoryBus) Messages(topic string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.messages[topic]))
	copy(out, b.messages[topic])
	return out
}

// FailWith makes every subsequent Publish return err. Pass nil to recover.
func (b *MemoryBus) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith = err
}

var _ MessageBus = (*SQSBus)(nil)
var _ MessageBus = (*MemoryBus)(nil)
