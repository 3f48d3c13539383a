package recommend

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/vanroute/vanroute/internal/recommend"

type metrics struct {
	plans        metric.Int64Counter
	superseded   metric.Int64Counter
	skipped      metric.Int64Counter
	poolLookups  metric.Int64Counter
	poolSize     metric.Int64Histogram
	planDuration metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter(instrumentationName)

	plans, err := meter.Int64Counter("recommend.plans.generated",
		metric.WithDescription("Number of day plans generated"),
		metric.WithUnit("{plan}"),
	)
	if err != nil {
		return nil, err
	}

	superseded, err := meter.Int64Counter("recommend.requests.superseded",
		metric.WithDescription("Number of requests discarded because a newer one arrived"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter("recommend.candidates.skipped",
		metric.WithDescription("Number of raw records that failed normalization"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	poolLookups, err := meter.Int64Counter("recommend.pool.lookups",
		metric.WithDescription("Number of candidate pool lookups by cache result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	poolSize, err := meter.Int64Histogram("recommend.pool.size",
		metric.WithDescription("Number of normalized candidates per request"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, err
	}

	planDuration, err := meter.Float64Histogram("recommend.request.duration",
		metric.WithDescription("Duration of recommendation requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		plans:        plans,
		superseded:   superseded,
		skipped:      skipped,
		poolLookups:  poolLookups,
		poolSize:     poolSize,
		planDuration: planDuration,
	}, nil
}

func (m *metrics) recordPool(ctx context.Context, op string, result cacheResult, size, skipped int) {
	opAttr := attribute.String("operation", op)
	m.poolLookups.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String("cache.result", string(result))))
	m.poolSize.Record(ctx, int64(size), metric.WithAttributes(opAttr))
	if skipped > 0 {
		m.skipped.Add(ctx, int64(skipped), metric.WithAttributes(opAttr))
	}
}
