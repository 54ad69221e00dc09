package core

import (
	"context"
	"fmt"
	"time"
)

// WaitAPIConditionConfig defines retry/backoff parameters for polling operations.
// Zero values are replaced with defaults by normalize.
type WaitAPIConditionConfig struct {
	Timeout       time.Duration // Maximum total wait time
	Interval      time.Duration // Current/initial polling interval (mutated by NextInterval)
	MaxInterval   time.Duration // Cap for exponential backoff
	BackoffFactor float64       // Rate of interval increase (0.25 = 25% per iteration)
}

// normalize fills zero values: 10m timeout, 500ms interval, 30s max interval, 0.25 backoff.
func (c *WaitAPIConditionConfig) normalize() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Minute
	}
	if c.Interval == 0 {
		c.Interval = 500 * time.Millisecond
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = 30 * time.Second
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 0.25
	}
}

// NextInterval returns the current interval and grows the stored one by BackoffFactor,
// capped at MaxInterval. Not safe for concurrent use.
func (c *WaitAPIConditionConfig) NextInterval() time.Duration {
	current := c.Interval
	next := time.Duration(float64(c.Interval) * (1.0 + c.BackoffFactor))
	if next > c.MaxInterval {
		next = c.MaxInterval
	}
	c.Interval = next
	return current
}

// WaitAPICondition polls caller until verifyFn reports completion, verifyFn fails,
// the API fails or the timeout elapses.
//
// searchParams with an "id" key are resolved through GetByIdWithContext, otherwise
// GetWithContext is used. A NotFoundError is treated as "not there yet" and polling
// continues, since records such as execution results appear with a delay.
func WaitAPICondition(
	ctx context.Context,
	caller QRSResourceAPIWithContext,
	searchParams Params,
	waitAPIConditionConfig *WaitAPIConditionConfig,
	verifyFn func(Record) (bool, error),
) (Record, error) {
	if waitAPIConditionConfig == nil {
		waitAPIConditionConfig = &WaitAPIConditionConfig{}
	}
	waitAPIConditionConfig.normalize()

	timeoutCtx, cancel := context.WithTimeout(ctx, waitAPIConditionConfig.Timeout)
	defer cancel()

	for {
		var (
			record Record
			err    error
		)
		if id, ok := searchParams["id"]; ok {
			record, err = caller.GetByIdWithContext(timeoutCtx, fmt.Sprint(id))
		} else {
			record, err = caller.GetWithContext(timeoutCtx, searchParams)
		}
		switch {
		case err == nil:
			completed, verifyErr := verifyFn(record)
			if verifyErr != nil {
				return record, verifyErr
			}
			if completed {
				return record, nil
			}
		case IsNotFoundErr(err):
		case timeoutCtx.Err() != nil:
		default:
			return nil, fmt.Errorf("WaitAPICondition API call failed: %w", err)
		}

		timer := time.NewTimer(waitAPIConditionConfig.NextInterval())
		select {
		case <-timeoutCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return nil, fmt.Errorf("WaitAPICondition cancelled: %w", ctx.Err())
			}
			return nil, fmt.Errorf("WaitAPICondition timeout after %v", waitAPIConditionConfig.Timeout)
		case <-timer.C:
		}
	}
}
