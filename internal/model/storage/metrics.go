package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var histogramOperationTime = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "bookkeeper",
		Subsystem: "storage",
		Name:      "histogram_operation_time_seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"table", "op", "error"},
)

// startOperation opens a span for one store call; the returned func records
// its latency and closes the span.
func startOperation(ctx context.Context, table, op string) (context.Context, func(err error)) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "storage."+op)
	span.SetTag("table", table)
	start := time.Now()

	return ctx, func(err error) {
		if err != nil {
			ext.Error.Set(span, true)
		}
		histogramOperationTime.
			WithLabelValues(table, op, strconv.FormatBool(err != nil)).
			Observe(time.Since(start).Seconds())
		span.Finish()
	}
}
