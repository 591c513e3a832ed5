package report

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeassist/safety-platform/internal/policy"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{}, nil
}

func TestTopicForPriority(t *testing.T) {
	assert.Equal(t, "safety.medium", TopicForPriority(policy.PriorityMedium))
	assert.Equal(t, "safety.critical_immediate", TopicForPriority(policy.PriorityCriticalImmediate))
}

func TestSQSBus_PublishRoutesByTopic(t *testing.T) {
	client := &fakeSQS{}
	bus := NewSQSBus(client, map[string]string{
		"safety.high":               "https://sqs.test/high",
		"safety.critical_immediate": "https://sqs.test/emergency",
	})

	err := bus.Publish(context.Background(), "safety.high", []byte(`{"report_id":"SAFE-1"}`))
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	assert.Equal(t, "https://sqs.test/high", *client.inputs[0].QueueUrl)
	assert.Equal(t, `{"report_id":"SAFE-1"}`, *client.inputs[0].MessageBody)
	assert.Equal(t, "safety.high", *client.inputs[0].MessageAttributes["topic"].StringValue)
}

func TestSQSBus_UnknownTopic(t *testing.T) {
	bus := NewSQSBus(&fakeSQS{}, map[string]string{})
	err := bus.Publish(context.Background(), "safety.medium", []byte("{}"))
	assert.ErrorContains(t, err, "no queue configured")
}

func TestSQSBus_SendFailure(t *testing.T) {
	bus := NewSQSBus(&fakeSQS{err: errors.New("throttled")}, map[string]string{
		"safety.medium": "https://sqs.test/medium",
	})
	err := bus.Publish(context.Background(), "safety.medium", []byte("{}"))
	assert.ErrorContains(t, err, "throttled")
}
