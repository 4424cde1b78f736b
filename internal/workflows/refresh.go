package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Activity names as registered from RefreshActivities.
const (
	activityRefreshSnapshot = "RefreshSnapshot"
	activityCheckNow        = "CheckNow"
)

// ScheduledWorkflowID is the fixed ID of the cron-driven refresh, so that
// restarting a worker attaches to the running schedule instead of adding one.
const ScheduledWorkflowID = "isstrack-feed-refresh"

// ErrTypeMalformedFeed marks refresh failures that retrying cannot fix.
const ErrTypeMalformedFeed = "MalformedFeed"

// RefreshInput is the input for the refresh workflow.
type RefreshInput struct {
	// Reason is logged only, e.g. "cron" or "manual".
	Reason string
	// SkipNowCheck disables the post-refresh nearest-to-now check.
	SkipNowCheck bool
}

// RefreshResult summarises one refresh.
type RefreshResult struct {
	StateVectors int
	FirstEpoch   string
	LastEpoch    string
	NowEpoch     string
}

// RefreshFeedWorkflow downloads the ephemeris, publishes it to the cache and
// then checks the new snapshot can answer a "now" query. A malformed feed
// fails immediately; network errors are retried with backoff.
func RefreshFeedWorkflow(ctx workflow.Context, input RefreshInput) (RefreshResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting feed refresh", "reason", input.Reason)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        10 * time.Second,
			BackoffCoefficient:     2,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{ErrTypeMalformedFeed},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var result RefreshResult
	if err := workflow.ExecuteActivity(ctx, activityRefreshSnapshot).Get(ctx, &result); err != nil {
		return RefreshResult{}, err
	}

	if !input.SkipNowCheck {
		checkCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 30 * time.Second,
			RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
		})
		var nowEpoch string
		if err := workflow.ExecuteActivity(checkCtx, activityCheckNow).Get(ctx, &nowEpoch); err != nil {
			// The snapshot is already live; the check only reports.
			logger.Warn("post-refresh now check failed", "error", err)
		}
		result.NowEpoch = nowEpoch
	}

	logger.Info("Feed refreshed", "stateVectors", result.StateVectors, "nowEpoch", result.NowEpoch)
	return result, nil
}
