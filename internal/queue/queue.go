package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/unclebandit/creatorhub-backend/internal/metrics"
)

// Handler processes one delivery. Deliveries are attempted once; errors are logged, not retried.
type Handler func(ctx context.Context, payload []byte) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, handler Handler) error
	Close() error
}

// AICheckJob asks a worker to run the AI quality check for one proposal.
type AICheckJob struct {
	ProposalID string `json:"proposal_id"`
}

func EncodeAICheckJob(proposalID string) ([]byte, error) {
	return json.Marshal(AICheckJob{ProposalID: proposalID})
}

func DecodeAICheckJob(payload []byte) (AICheckJob, error) {
	var job AICheckJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return AICheckJob{}, fmt.Errorf("decode ai check job: %w", err)
	}
	if job.ProposalID == "" {
		return AICheckJob{}, fmt.Errorf("decode ai check job: proposal_id missing")
	}
	return job, nil
}

// InMemoryQueue runs subscribers in-process. Used when no broker is configured and in tests.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *slog.Logger) *InMemoryQueue {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &InMemoryQueue{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Publish hands the payload to every subscriber of topic on its own goroutine.
func (q *InMemoryQueue) Publish(_ context.Context, topic string, payload []byte) error {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		metrics.IncJobPublished(topic, "no_subscriber")
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	body := append([]byte(nil), payload...)
	for _, handler := range handlers {
		q.wg.Add(1)
		go func(h Handler) {
			defer q.wg.Done()
			if err := h(context.Background(), body); err != nil {
				q.logger.Warn("job failed", "topic", topic, "error", err)
			}
		}(handler)
	}
	metrics.IncJobPublished(topic, "ok")
	return nil
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

func (q *InMemoryQueue) Close() error {
	q.Wait()
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
