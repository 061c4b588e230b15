package prometheus

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/luxfi/geth/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Gatherer implements prometheus.Gatherer by reading every metric out of a
// geth-style registry and converting it to the protobuf wire type
// client_golang expects.
type Gatherer struct {
	registry Registry
}

var _ prometheus.Gatherer = (*Gatherer)(nil)

// NewGatherer returns a Gatherer reading from registry.
func NewGatherer(registry Registry) *Gatherer {
	return &Gatherer{registry: registry}
}

// Gather implements prometheus.Gatherer.
func (g *Gatherer) Gather() (mfs []*dto.MetricFamily, err error) {
	var names []string
	g.registry.Each(func(name string, _ any) {
		names = append(names, name)
	})
	sort.Strings(names)

	mfs = make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		mf, err := metricFamily(g.registry, name)
		switch {
		case errors.Is(err, errMetricSkip):
			continue
		case err != nil:
			return nil, err
		}
		mfs = append(mfs, mf)
	}
	return mfs, nil
}

var (
	errMetricSkip             = errors.New("metric skipped")
	errMetricTypeNotSupported = errors.New("metric type is not supported")
)

func ptrTo[T any](x T) *T { return &x }

func metricFamily(registry Registry, name string) (*dto.MetricFamily, error) {
	metric := registry.Get(name)
	name = strings.ReplaceAll(name, "/", "_")

	if metric == nil {
		return nil, fmt.Errorf("%w: %q metric is nil", errMetricSkip, name)
	}

	switch m := metric.(type) {
	case *metrics.Counter:
		snapshot := m.Snapshot()
		return &dto.MetricFamily{
			Name: &name,
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{{
				Counter: &dto.Counter{Value: ptrTo(float64(snapshot.Count()))},
			}},
		}, nil

	case *metrics.CounterFloat64:
		snapshot := m.Snapshot()
		return &dto.MetricFamily{
			Name: &name,
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{{
				Counter: &dto.Counter{Value: ptrTo(snapshot.Count())},
			}},
		}, nil

	case *metrics.Gauge:
		return &dto.MetricFamily{
			Name: &name,
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: ptrTo(float64(m.Snapshot().Value()))},
			}},
		}, nil

	case *metrics.GaugeFloat64:
		return &dto.MetricFamily{
			Name: &name,
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: ptrTo(m.Snapshot().Value())},
			}},
		}, nil

	case *metrics.GaugeInfo:
		return nil, fmt.Errorf("%w: %q is a gauge_info", errMetricSkip, name)

	case metrics.Histogram:
		snapshot := m.Snapshot()
		if snapshot.Count() == 0 {
			return nil, fmt.Errorf("%w: %q histogram has no data", errMetricSkip, name)
		}
		return &dto.MetricFamily{
			Name:   &name,
			Type:   dto.MetricType_SUMMARY.Enum(),
			Metric: []*dto.Metric{{Summary: summaryFromQuantiles(snapshot, defaultQuantiles, 1)}},
		}, nil

	case *metrics.Meter:
		snapshot := m.Snapshot()
		return &dto.MetricFamily{
			Name: &name,
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: ptrTo(float64(snapshot.Count()))},
			}},
		}, nil

	case *metrics.Timer:
		snapshot := m.Snapshot()
		if snapshot.Count() == 0 {
			return nil, fmt.Errorf("%w: %q timer has no data", errMetricSkip, name)
		}
		return &dto.MetricFamily{
			Name:   &name,
			Type:   dto.MetricType_SUMMARY.Enum(),
			Metric: []*dto.Metric{{Summary: summaryFromQuantiles(snapshot, defaultQuantiles, float64(time.Millisecond))}},
		}, nil

	case *metrics.ResettingTimer:
		snapshot := m.Snapshot()
		if snapshot.Count() == 0 {
			return nil, fmt.Errorf("%w: %q resetting timer has no data", errMetricSkip, name)
		}
		pct := []float64{50, 95, 99}
		thresholds := snapshot.Percentiles(pct)
		qs := make([]*dto.Quantile, len(pct))
		for i, p := range pct {
			qs[i] = &dto.Quantile{Quantile: ptrTo(p / 100), Value: ptrTo(thresholds[i] / float64(time.Millisecond))}
		}
		return &dto.MetricFamily{
			Name: &name,
			Type: dto.MetricType_SUMMARY.Enum(),
			Metric: []*dto.Metric{{Summary: &dto.Summary{
				SampleCount: ptrTo(uint64(snapshot.Count())),
				SampleSum:   ptrTo(snapshot.Mean() * float64(snapshot.Count()) / float64(time.Millisecond)),
				Quantile:    qs,
			}}},
		}, nil

	default:
		switch metric.(type) {
		case *metrics.UniformSample, *metrics.ResettingTimerSnapshot:
			return nil, fmt.Errorf("%w: %q is a sample/snapshot", errMetricSkip, name)
		case *metrics.Healthcheck:
			return nil, fmt.Errorf("%w: %q is a healthcheck", errMetricTypeNotSupported, name)
		case *metrics.EWMA:
			return nil, fmt.Errorf("%w: %q is an EWMA", errMetricTypeNotSupported, name)
		default:
			return nil, fmt.Errorf("%w: metric %q type %T", errMetricTypeNotSupported, name, metric)
		}
	}
}

var defaultQuantiles = []float64{.5, .75, .95, .99, .999, .9999}

type percentiler interface {
	Count() int64
	Sum() int64
	Percentiles([]float64) []float64
}

func summaryFromQuantiles(snapshot percentiler, quantiles []float64, scale float64) *dto.Summary {
	thresholds := snapshot.Percentiles(quantiles)
	dtoQuantiles := make([]*dto.Quantile, len(quantiles))
	for i, q := range quantiles {
		dtoQuantiles[i] = &dto.Quantile{Quantile: ptrTo(q), Value: ptrTo(thresholds[i] / scale)}
	}
	return &dto.Summary{
		SampleCount: ptrTo(uint64(snapshot.Count())),
		SampleSum:   ptrTo(float64(snapshot.Sum()) / scale),
		Quantile:    dtoQuantiles,
	}
}
