package metricscollector

import (
	"context"
	"errors"

	"github.com/izzddalfk/tgrelay/internal/relay/core"
)

// Multi fans a record out to every collector and joins their errors
type Multi []core.MetricsCollector

func (m Multi) RecordRelay(ctx context.Context, metrics core.RelayMetrics) error {
	var errs []error
	for _, c := range m {
		if err := c.RecordRelay(ctx, metrics); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
