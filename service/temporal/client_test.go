package temporal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/brojonat/solprereq/service/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
)

// fakeExecutor records started workflows and hands back a canned run.
type fakeExecutor struct {
	run      client.WorkflowRun
	err      error
	options  []client.StartWorkflowOptions
	args     [][]interface{}
	isClosed bool
}

func (f *fakeExecutor) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	f.options = append(f.options, options)
	f.args = append(f.args, args)
	if f.err != nil {
		return nil, f.err
	}
	return f.run, nil
}

func (f *fakeExecutor) Close() { f.isClosed = true }

func newRun(result *runner.Result, err error) *mocks.WorkflowRun {
	run := &mocks.WorkflowRun{}
	run.On("GetID").Return("wf-id")
	run.On("GetRunID").Return("run-id")
	run.On("Get", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			if result != nil {
				*args.Get(1).(*runner.Result) = *result
			}
		}).
		Return(err)
	return run
}

func newTestTemporalClient(exec *fakeExecutor) *Client {
	return &Client{
		client:    exec,
		taskQueue: "solprereq-test",
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Drain(t *testing.T) {
	exec := &fakeExecutor{run: newRun(&runner.Result{Kind: runner.KindDrain, Signature: "sig", Fee: 5000}, nil)}
	c := newTestTemporalClient(exec)

	input := DrainInput{FromKeyPath: "dev-wallet.json", To: "Target"}
	res, err := c.Drain(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "sig", res.Signature)
	assert.Equal(t, uint64(5000), res.Fee)

	require.Len(t, exec.options, 1)
	assert.Equal(t, "solprereq-test", exec.options[0].TaskQueue)
	assert.True(t, strings.HasPrefix(exec.options[0].ID, "solprereq-drain-"))
	assert.Equal(t, []interface{}{input}, exec.args[0])
}

func TestClient_UniqueWorkflowIDs(t *testing.T) {
	exec := &fakeExecutor{run: newRun(&runner.Result{}, nil)}
	c := newTestTemporalClient(exec)

	_, err := c.Transfer(context.Background(), TransferInput{})
	require.NoError(t, err)
	_, err = c.Transfer(context.Background(), TransferInput{})
	require.NoError(t, err)

	require.Len(t, exec.options, 2)
	assert.NotEqual(t, exec.options[0].ID, exec.options[1].ID)
}

func TestClient_StartError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("connection refused")}
	c := newTestTemporalClient(exec)

	_, err := c.Airdrop(context.Background(), AirdropInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start workflow")
}

func TestClient_WorkflowError(t *testing.T) {
	exec := &fakeExecutor{run: newRun(nil, errors.New("insufficient funds"))}
	c := newTestTemporalClient(exec)

	_, err := c.CompletePrereq(context.Background(), CompletePrereqInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestClient_Close(t *testing.T) {
	exec := &fakeExecutor{}
	newTestTemporalClient(exec).Close()
	assert.True(t, exec.isClosed)
}
