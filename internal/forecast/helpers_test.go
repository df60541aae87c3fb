package forecast

import (
	"context"
	"time"

	"github.com/angelmondragon/packfinderz-forecast/pkg/retry"
)

func noWaitPolicy() retry.Policy {
	p := retry.Default(nil)
	p.Wait = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}
