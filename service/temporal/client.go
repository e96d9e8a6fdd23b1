package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brojonat/solprereq/service/runner"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
)

// workflowExecutor is the part of client.Client used to run workflows.
type workflowExecutor interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	Close()
}

// Client starts submission workflows and waits for their results.
type Client struct {
	client    workflowExecutor
	taskQueue string
	logger    *slog.Logger
}

// NewClient creates a new Temporal client.
func NewClient(host, namespace, taskQueue string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("connecting to temporal",
		"host", host,
		"namespace", namespace,
		"task_queue", taskQueue,
	)

	c, err := client.Dial(client.Options{
		HostPort:  host,
		Namespace: namespace,
		Logger:    newTemporalLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal: %w", err)
	}

	logger.Info("connected to temporal successfully")

	return &Client{
		client:    c,
		taskQueue: taskQueue,
		logger:    logger,
	}, nil
}

// Airdrop runs AirdropWorkflow to completion.
func (c *Client) Airdrop(ctx context.Context, input AirdropInput) (*runner.Result, error) {
	return c.execute(ctx, runner.KindAirdrop, AirdropWorkflow, input)
}

// Transfer runs TransferWorkflow to completion.
func (c *Client) Transfer(ctx context.Context, input TransferInput) (*runner.Result, error) {
	return c.execute(ctx, runner.KindTransfer, TransferWorkflow, input)
}

// Drain runs DrainWorkflow to completion.
func (c *Client) Drain(ctx context.Context, input DrainInput) (*runner.Result, error) {
	return c.execute(ctx, runner.KindDrain, DrainWorkflow, input)
}

// CompletePrereq runs CompletePrereqWorkflow to completion.
func (c *Client) CompletePrereq(ctx context.Context, input CompletePrereqInput) (*runner.Result, error) {
	return c.execute(ctx, runner.KindCompletePrereq, CompletePrereqWorkflow, input)
}

func (c *Client) execute(ctx context.Context, kind string, wf interface{}, input interface{}) (*runner.Result, error) {
	opts := client.StartWorkflowOptions{
		ID:        workflowID(kind),
		TaskQueue: c.taskQueue,
	}

	run, err := c.client.ExecuteWorkflow(ctx, opts, wf, input)
	if err != nil {
		c.logger.Error("failed to start workflow", "workflow_id", opts.ID, "error", err)
		return nil, fmt.Errorf("failed to start workflow %q: %w", opts.ID, err)
	}

	c.logger.Info("workflow started",
		"workflow_id", run.GetID(),
		"run_id", run.GetRunID(),
	)

	var result runner.Result
	if err := run.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("workflow %q failed: %w", opts.ID, err)
	}
	return &result, nil
}

// TaskQueue returns the configured task queue for this client.
func (c *Client) TaskQueue() string {
	return c.taskQueue
}

// Close closes the Temporal client connection.
func (c *Client) Close() {
	c.logger.Info("closing temporal client")
	c.client.Close()
}

// workflowID generates a unique workflow ID for one submission.
func workflowID(kind string) string {
	return "solprereq-" + kind + "-" + uuid.NewString()
}

// temporalLogger adapts slog.Logger to Temporal's logger interface.
type temporalLogger struct {
	logger *slog.Logger
}

func newTemporalLogger(logger *slog.Logger) *temporalLogger {
	return &temporalLogger{logger: logger}
}

func (l *temporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.logger.Debug(msg, keyvals...)
}

func (l *temporalLogger) Info(msg string, keyvals ...interface{}) {
	l.logger.Info(msg, keyvals...)
}

func (l *temporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.logger.Warn(msg, keyvals...)
}

func (l *temporalLogger) Error(msg string, keyvals ...interface{}) {
	l.logger.Error(msg, keyvals...)
}
