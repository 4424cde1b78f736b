package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

// Refresher is the part of usecases.EphemerisService the activities drive.
type Refresher interface {
	Refresh(ctx context.Context) (*domain.Snapshot, error)
	Nearest(ctx context.Context) (*domain.StateVector, error)
}

// RefreshActivities holds the activity implementations for the refresh workflow.
type RefreshActivities struct {
	Service Refresher
}

// RefreshSnapshot fetches the feed and replaces the cached snapshot.
func (a *RefreshActivities) RefreshSnapshot(ctx context.Context) (RefreshResult, error) {
	snap, err := a.Service.Refresh(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedFeed) {
			return RefreshResult{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeMalformedFeed, err)
		}
		return RefreshResult{}, err
	}

	res := RefreshResult{StateVectors: snap.Len()}
	if n := snap.Len(); n > 0 {
		res.FirstEpoch = snap.StateVectors[0].Epoch
		res.LastEpoch = snap.StateVectors[n-1].Epoch
	}
	activity.GetLogger(ctx).Info("snapshot stored", "stateVectors", res.StateVectors)
	return res, nil
}

// CheckNow resolves the epoch nearest to the current time. It skips
// geocoding so scheduled refreshes never spend the geocoder's rate budget.
func (a *RefreshActivities) CheckNow(ctx context.Context) (string, error) {
	sv, err := a.Service.Nearest(ctx)
	if err != nil {
		return "", err
	}
	return sv.Epoch, nil
}
