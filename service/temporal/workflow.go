package temporal

import (
	"fmt"
	"time"

	"github.com/brojonat/solprereq/service/runner"
	temporalsdk "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

var a *Activities // for type-safe activity invocation

// DefaultActivityTimeout bounds a single submission, including confirmation.
const DefaultActivityTimeout = 2 * time.Minute

// withSingleAttempt configures activity options for a submission.
// Submissions run exactly once.
func withSingleAttempt(ctx workflow.Context, timeout time.Duration) workflow.Context {
	if timeout <= 0 {
		timeout = DefaultActivityTimeout
	}
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporalsdk.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
}

// AirdropWorkflow requests an airdrop and waits for it to confirm.
func AirdropWorkflow(ctx workflow.Context, input AirdropInput) (*runner.Result, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("AirdropWorkflow started", "address", input.Address, "lamports", input.Lamports)

	ctx = withSingleAttempt(ctx, input.Timeout)

	var result *runner.Result
	if err := workflow.ExecuteActivity(ctx, a.Airdrop, input).Get(ctx, &result); err != nil {
		logger.Error("airdrop failed", "address", input.Address, "error", err)
		return nil, fmt.Errorf("airdrop failed: %w", err)
	}

	logger.Info("AirdropWorkflow completed", "signature", result.Signature)
	return result, nil
}

// TransferWorkflow sends a fixed amount from one key file to an address.
func TransferWorkflow(ctx workflow.Context, input TransferInput) (*runner.Result, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("TransferWorkflow started", "to", input.To, "lamports", input.Lamports)

	ctx = withSingleAttempt(ctx, input.Timeout)

	var result *runner.Result
	if err := workflow.ExecuteActivity(ctx, a.Transfer, input).Get(ctx, &result); err != nil {
		logger.Error("transfer failed", "to", input.To, "error", err)
		return nil, fmt.Errorf("transfer failed: %w", err)
	}

	logger.Info("TransferWorkflow completed", "signature", result.Signature)
	return result, nil
}

// DrainWorkflow moves a key file's entire balance, minus the fee, to an address.
func DrainWorkflow(ctx workflow.Context, input DrainInput) (*runner.Result, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("DrainWorkflow started", "to", input.To)

	ctx = withSingleAttempt(ctx, input.Timeout)

	var result *runner.Result
	if err := workflow.ExecuteActivity(ctx, a.Drain, input).Get(ctx, &result); err != nil {
		logger.Error("drain failed", "to", input.To, "error", err)
		return nil, fmt.Errorf("drain failed: %w", err)
	}

	logger.Info("DrainWorkflow completed",
		"signature", result.Signature,
		"amount", result.Amount,
		"fee", result.Fee,
	)
	return result, nil
}

// CompletePrereqWorkflow records a github handle with the prerequisite program.
func CompletePrereqWorkflow(ctx workflow.Context, input CompletePrereqInput) (*runner.Result, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("CompletePrereqWorkflow started", "github", input.Github)

	ctx = withSingleAttempt(ctx, input.Timeout)

	var result *runner.Result
	if err := workflow.ExecuteActivity(ctx, a.CompletePrereq, input).Get(ctx, &result); err != nil {
		logger.Error("complete prerequisite failed", "github", input.Github, "error", err)
		return nil, fmt.Errorf("complete prerequisite failed: %w", err)
	}

	logger.Info("CompletePrereqWorkflow completed",
		"signature", result.Signature,
		"prereq", result.Derived,
	)
	return result, nil
}
