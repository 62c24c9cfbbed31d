// Package jobqueue implements C8 JobQueue: three named priority queues
// (stt, llm, tts) served by one shared worker pool, with retry with
// backoff, backed by Redis via asynq. The pool's size is the sum of the
// three configured worker counts, and each count is also its queue's
// priority weight; no queue has a concurrency cap of its own.
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/snarg/callengine/internal/callmodel"
	"github.com/snarg/callengine/internal/metrics"
)

// taskTypeFor maps a job kind to its asynq task type name.
func taskTypeFor(kind callmodel.JobKind) string {
	return "callengine:" + string(kind)
}

// queueFor maps a job kind to its named queue, per spec §4.9's "one
// queue per engine".
func queueFor(kind callmodel.JobKind) string {
	switch kind {
	case callmodel.JobTranscribe:
		return "stt"
	case callmodel.JobClassify, callmodel.JobGenerate:
		return "llm"
	case callmodel.JobSynthesize:
		return "tts"
	default:
		return "llm"
	}
}

// Handle is a future-like reference to an enqueued job, returned by
// Enqueue. Await blocks on it instead of the caller registering a
// completion callback (Design Notes: explicit handles, not callbacks).
type Handle struct {
	id string
	ch chan Result
}

// Result is what a completed or failed job produces.
type Result struct {
	Output []byte
	Err    error
}

// Options control a single Enqueue call.
type Options struct {
	Priority    callmodel.Priority
	MaxAttempts int
	Delay       time.Duration
}

// HandlerFunc processes one job's payload and returns its output bytes.
type HandlerFunc func(ctx context.Context, callID string, payload []byte) ([]byte, error)

// Queue is C8 JobQueue.
type Queue struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	redis     redis.UniversalClient
	inspector *asynq.Inspector

	mu      sync.Mutex
	pending map[string]chan Result

	log zerolog.Logger
}

// Config carries the per-queue worker counts, mirroring spec §5's
// STT=5/LLM=3/TTS=3 defaults. New sums them into one shared pool and
// uses each count as its queue's priority weight.
type Config struct {
	RedisURL    string
	STTWorkers  int
	LLMWorkers  int
	TTSWorkers  int
}

// New connects to Redis and constructs the three named queues over one
// shared worker pool. Handlers must be registered with Register
// before Start is called.
func New(cfg Config, log zerolog.Logger) (*Queue, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("jobqueue: parse redis url: %w", err)
	}

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("jobqueue: parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.STTWorkers + cfg.LLMWorkers + cfg.TTSWorkers,
		// Queue priority is strict: a non-empty queue with a higher weight
		// is always drained before a lower one. This orders queues only;
		// Enqueue does not pass Options.Priority to asynq, so an urgent
		// job gets no precedence over a normal one.
		Queues: map[string]int{
			"stt": cfg.STTWorkers,
			"llm": cfg.LLMWorkers,
			"tts": cfg.TTSWorkers,
		},
		StrictPriority: true,
	})

	return &Queue{
		client:    client,
		server:    server,
		mux:       asynq.NewServeMux(),
		redis:     redis.NewClient(redisOpt),
		inspector: asynq.NewInspector(opt),
		pending:   make(map[string]chan Result),
		log:       log.With().Str("component", "jobqueue").Logger(),
	}, nil
}

// Ping checks Redis reachability, for use by the HTTP health endpoint.
func (q *Queue) Ping(ctx context.Context) error {
	return q.redis.Ping(ctx).Err()
}

// Register installs fn as the handler for kind. Must be called for every
// JobKind before Start.
func (q *Queue) Register(kind callmodel.JobKind, fn HandlerFunc) {
	q.mux.HandleFunc(taskTypeFor(kind), func(ctx context.Context, t *asynq.Task) error {
		var env envelope
		if err := json.Unmarshal(t.Payload(), &env); err != nil {
			return fmt.Errorf("jobqueue: decode envelope: %w", err)
		}

		output, err := fn(ctx, env.CallID, env.Payload)

		if err != nil {
			// A failure asynq still intends to retry isn't terminal: let it
			// propagate to asynq without resolving Await, so the waiter
			// keeps blocking until either a later attempt succeeds or
			// retries are exhausted below.
			retried, hasRetried := asynq.GetRetryCount(ctx)
			maxRetry, hasMax := asynq.GetMaxRetry(ctx)
			if hasRetried && hasMax && retried < maxRetry {
				return err
			}
		}

		taskID := t.ResultWriter().TaskID()
		q.mu.Lock()
		ch, ok := q.pending[taskID]
		if ok {
			delete(q.pending, taskID)
		}
		q.mu.Unlock()

		if ok {
			select {
			case ch <- Result{Output: output, Err: err}:
			default:
			}
		}
		return err
	})
}

// envelope wraps a job's call-scoping alongside its kind-specific
// payload, so a single handler signature can recover both.
type envelope struct {
	CallID  string `json:"call_id"`
	Payload []byte `json:"payload"`
}

// Enqueue submits a job and returns a Handle the caller can Await. FIFO
// is preserved within the same (call-id, kind) per spec §5.
func (q *Queue) Enqueue(ctx context.Context, kind callmodel.JobKind, callID string, payload []byte, opts Options) (*Handle, error) {
	env, err := json.Marshal(envelope{CallID: callID, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("jobqueue: encode envelope: %w", err)
	}

	id := uuid.NewString()
	ch := make(chan Result, 1)
	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()

	task := asynq.NewTask(taskTypeFor(kind), env, asynq.TaskID(id))

	taskOpts := []asynq.Option{asynq.Queue(queueFor(kind))}
	if opts.MaxAttempts > 0 {
		taskOpts = append(taskOpts, asynq.MaxRetry(opts.MaxAttempts))
	}
	if opts.Delay > 0 {
		taskOpts = append(taskOpts, asynq.ProcessIn(opts.Delay))
	}

	if _, err := q.client.EnqueueContext(ctx, task, taskOpts...); err != nil {
		q.mu.Lock()
		delete(q.pending, id)
		q.mu.Unlock()
		return nil, fmt.Errorf("jobqueue: enqueue: %w", err)
	}

	return &Handle{id: id, ch: ch}, nil
}

// Await blocks until h's job completes, fails permanently, or ctx is
// done.
func (q *Queue) Await(ctx context.Context, h *Handle) (Result, error) {
	select {
	case r := <-h.ch:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Start runs the worker pools in the background. The caller must call
// Shutdown (directly, or by canceling the context passed to the owning
// service) to stop them.
func (q *Queue) Start(ctx context.Context) error {
	if err := q.server.Start(q.mux); err != nil {
		return fmt.Errorf("jobqueue: start: %w", err)
	}
	go q.reportDepth(ctx)
	go func() {
		<-ctx.Done()
		q.Shutdown()
	}()
	return nil
}

// reportDepth polls asynq's Inspector for each named queue's pending depth
// and publishes it as metrics.JobQueueDepth, until ctx is done. A failed
// GetQueueInfo call is logged and skipped rather than treated as zero depth,
// so a transient Redis hiccup doesn't read as "queue empty" on a dashboard.
func (q *Queue) reportDepth(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range []string{"stt", "llm", "tts"} {
				info, err := q.inspector.GetQueueInfo(name)
				if err != nil {
					q.log.Warn().Err(err).Str("queue", name).Msg("jobqueue: depth report failed")
					continue
				}
				metrics.JobQueueDepth.WithLabelValues(name).Set(float64(info.Pending + info.Scheduled + info.Retry))
			}
		}
	}
}

// Shutdown stops accepting new work and waits for in-flight jobs to
// finish.
func (q *Queue) Shutdown() {
	q.server.Shutdown()
	q.client.Close()
	q.inspector.Close()
}

// Clean deletes the completed tasks of queueName whose completion time is
// older than age, through asynq's Inspector. Failed, retrying and
// archived tasks are not touched, and there is no status argument.
func (q *Queue) Clean(redisURL string, queueName string, age time.Duration) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	tasks, err := inspector.ListCompletedTasks(queueName)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-age)
	for _, t := range tasks {
		if t.CompletedAt.Before(cutoff) {
			_ = inspector.DeleteTask(queueName, t.ID)
		}
	}
	return nil
}
