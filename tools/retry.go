package tools

import (
	"context"
	"fmt"
	"time"
)

type ActionFunc = func(ctx context.Context) error
type LogFunc = func(error)

// Retry implements an exponential backoff retry mechanism where:
// `initWait` is the first wait between executions (recommended = 1s)
// `retries` is the maximum number of executions
// `action` is the function to execute
// `log` is the function to log errors occurred in each retry
// Retry gives up early, returning the last error, when ctx is done.
func Retry(ctx context.Context, initWait time.Duration, retries int, action ActionFunc, log LogFunc) error {
	if initWait <= 0 {
		return fmt.Errorf("initial wait must be positive, got %v (Retry(%v, %d, ...))", initWait, initWait, retries)
	}
	var err error
	wait := initWait
	for i := 0; i < retries; i++ {
		err = action(ctx)
		if err == nil {
			return nil
		}
		log(err)
		if i == retries-1 {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%v (gave up after %d tries: %w)", err, i+1, ctx.Err())
		case <-timer.C:
		}
		wait *= 2
	}
	return err
}
