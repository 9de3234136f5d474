package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

type stubRelayer struct {
	mu       sync.Mutex
	payloads []booking.Payload
	outcome  Outcome
	err      error
}

func (s *stubRelayer) NotifyBooking(ctx context.Context, p booking.Payload) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	if s.outcome == "" {
		return OutcomeSent, s.err
	}
	return s.outcome, s.err
}

func (s *stubRelayer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

type countingQueue struct {
	*MemoryQueue
	mu      sync.Mutex
	deleted int
}

func (q *countingQueue) Delete(ctx context.Context, handle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted++
	return nil
}

func (q *countingQueue) deletes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.deleted
}

func TestPublisherWorkerRoundTrip(t *testing.T) {
	queue := &countingQueue{MemoryQueue: NewMemoryQueue(4)}
	relay := &stubRelayer{}
	pub := NewPublisher(queue, logging.New("error"))

	require.NoError(t, pub.Enqueue(context.Background(), testPayload()))
	assert.Equal(t, 1, queue.Len())

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(relay, queue, logging.New("error"), WithWorkerCount(1), WithReceiveWaitSeconds(1))
	w.Start(ctx)

	require.Eventually(t, func() bool { return relay.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	w.Wait()

	assert.Equal(t, "bk-1", relay.payloads[0].BookingID)
	assert.Equal(t, 1, queue.deletes())
}

func TestPublisherRejectsInvalidPayload(t *testing.T) {
	queue := NewMemoryQueue(1)
	pub := NewPublisher(queue, logging.New("error"))

	p := testPayload()
	p.PhoneNumber = ""
	assert.ErrorIs(t, pub.Enqueue(context.Background(), p), ErrInvalidPayload)
	assert.Zero(t, queue.Len())
}

func TestWorkerKeepsFailedJobsForRetry(t *testing.T) {
	queue := &countingQueue{MemoryQueue: NewMemoryQueue(1)}
	w := NewWorker(&stubRelayer{outcome: OutcomeFailed, err: errors.New("down")}, queue, logging.New("error"))

	_, body, err := encodePayload(testPayload(), time.Now())
	require.NoError(t, err)
	w.handleMessage(context.Background(), QueueMessage{ID: "1", Body: body, ReceiptHandle: "rh"})
	assert.Zero(t, queue.deletes())
}

func TestWorkerDropsUndecodableAndUnknownJobs(t *testing.T) {
	queue := &countingQueue{MemoryQueue: NewMemoryQueue(1)}
	relay := &stubRelayer{}
	w := NewWorker(relay, queue, logging.New("error"))

	w.handleMessage(context.Background(), QueueMessage{ID: "1", Body: "{", ReceiptHandle: "rh1"})

	body, _ := json.Marshal(queuePayload{ID: "x", Kind: "other"})
	w.handleMessage(context.Background(), QueueMessage{ID: "2", Body: string(body), ReceiptHandle: "rh2"})

	assert.Equal(t, 2, queue.deletes())
	assert.Zero(t, relay.count())
}

func TestWorkerDeletesPartialAndInvalid(t *testing.T) {
	queue := &countingQueue{MemoryQueue: NewMemoryQueue(1)}
	_, body, err := encodePayload(testPayload(), time.Now())
	require.NoError(t, err)

	partial := NewWorker(&stubRelayer{outcome: OutcomePartial, err: errors.New("sms")}, queue, logging.New("error"))
	partial.handleMessage(context.Background(), QueueMessage{Body: body, ReceiptHandle: "a"})

	invalid := NewWorker(&stubRelayer{outcome: OutcomeFailed, err: ErrInvalidPayload}, queue, logging.New("error"))
	invalid.handleMessage(context.Background(), QueueMessage{Body: body, ReceiptHandle: "b"})

	assert.Equal(t, 2, queue.deletes())
}

func TestMemoryQueueReceiveTimesOut(t *testing.T) {
	q := NewMemoryQueue(1)
	msgs, err := q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = q.Receive(ctx, 1, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryQueueBatches(t *testing.T) {
	q := NewMemoryQueue(4)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Send(context.Background(), "m"))
	}
	msgs, err := q.Receive(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, 1, q.Len())
}

type fakeSQS struct {
	sent     []string
	deleted  []string
	messages []sqstypes.Message
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueue(t *testing.T) {
	fake := &fakeSQS{messages: []sqstypes.Message{{
		MessageId:     aws.String("m1"),
		Body:          aws.String("body"),
		ReceiptHandle: aws.String("rh1"),
	}}}
	q := newSQSQueue(fake, "https://sqs.local/000000000000/notify")

	require.NoError(t, q.Send(context.Background(), "hello"))
	assert.Equal(t, []string{"hello"}, fake.sent)

	msgs, err := q.Receive(context.Background(), 5, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, QueueMessage{ID: "m1", Body: "body", ReceiptHandle: "rh1"}, msgs[0])

	require.NoError(t, q.Delete(context.Background(), "rh1"))
	require.NoError(t, q.Delete(context.Background(), ""))
	assert.Equal(t, []string{"rh1"}, fake.deleted)

	assert.Panics(t, func() { newSQSQueue(fake, "") })
}
