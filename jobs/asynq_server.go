package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/viajes-nova/viajes-api/internal/jobs"
	"github.com/viajes-nova/viajes-api/internal/platform/httpx"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/shared"
)

// Worker wraps the Asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// TaskHandler allows injecting Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Concurrency int
	Handlers    []TaskHandler
	// Metrics, when set, observes every task through mux middleware.
	Metrics *jobmetrics.Metrics
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if len(cfg.Handlers) == 0 {
		return nil, errors.New("worker: no task handlers")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	if cfg.Metrics != nil {
		mux.Use(cfg.Metrics.Middleware)
	}
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

var _ shared.AuditRecorder = (*Client)(nil)

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// Record enqueues the audit entry for the worker to persist.
func (c *Client) Record(ctx context.Context, entry shared.AuditLog) error {
	task, err := NewAuditRecordTask(entry)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// QueueInspector reports queue state; satisfied by *asynq.Inspector.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes queue health to operators holding the role management module.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
	rbac      rbac.Middleware
}

// NewHandler constructs an HTTP handler for jobs endpoints. inspector may be nil.
func NewHandler(inspector QueueInspector, logger *slog.Logger, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger, rbac: rbac}
}

// MountRoutes attaches job routes. The caller must have authenticated the request.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireModule(rbac.ModuleRoles))
		r.Get("/health", h.health)
	})
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Retry   int    `json:"retry"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, queueHealth{Queue: QueueDefault})
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		httpx.Error(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
		return
	}
	out := queueHealth{Queue: QueueDefault}
	if info != nil {
		out = queueHealth{Queue: info.Queue, Pending: info.Pending, Retry: info.Retry}
	}
	httpx.JSON(w, http.StatusOK, out)
}
