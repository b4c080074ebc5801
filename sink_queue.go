package rolewatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskEventDelivered is the asynq task type carrying an EventRecord.
const TaskEventDelivered = "rolewatch:event"

// Enqueuer is the part of *asynq.Client used by QueueSink.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink hands every event to an asynq queue so listeners can run out of
// process, with retries.
//
// Example:
//
//	client := asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:6379"})
//	sink := rolewatch.NewQueueSink(client, cfg.QueueName, logger)
type QueueSink struct {
	client Enqueuer
	queue  string
	logger *slog.Logger
}

// NewQueueSink creates a QueueSink. A nil logger uses slog.Default().
func NewQueueSink(client Enqueuer, queue string, logger *slog.Logger) *QueueSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueSink{client: client, queue: queue, logger: logger}
}

// Dispatch implements Sink. Enqueue failures are logged.
func (q *QueueSink) Dispatch(ctx context.Context, e Event) {
	if _, err := q.Enqueue(ctx, e); err != nil {
		q.logger.Error("rolewatch: enqueue failed",
			slog.String("queue", q.queue),
			slog.String("event", e.Name()),
			slog.String("event_id", e.ID),
			slog.Any("error", err),
		)
	}
}

// Enqueue submits e and returns the task info.
func (q *QueueSink) Enqueue(ctx context.Context, e Event) (*asynq.TaskInfo, error) {
	task, err := NewEventTask(e)
	if err != nil {
		return nil, err
	}
	return q.client.EnqueueContext(ctx, task, asynq.Queue(q.queue), asynq.TaskID(e.ID))
}

// NewEventTask builds the asynq task for e.
func NewEventTask(e Event) (*asynq.Task, error) {
	body, err := json.Marshal(e.Record())
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEventDelivered, body, asynq.MaxRetry(5)), nil
}

// ParseEventTask decodes the record carried by a task built with NewEventTask.
func ParseEventTask(task *asynq.Task) (EventRecord, error) {
	return DecodeRecord(task.Payload())
}

// NewEventTaskHandler adapts a record handler to an asynq handler.
//
// Example:
//
//	mux := asynq.NewServeMux()
//	mux.Handle(rolewatch.TaskEventDelivered, rolewatch.NewEventTaskHandler(handle))
func NewEventTaskHandler(handle func(ctx context.Context, rec EventRecord) error) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		rec, err := ParseEventTask(task)
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return handle(ctx, rec)
	})
}
