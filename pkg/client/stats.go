package client

import (
	"sync"
	"time"

	gometrics "github.com/hashicorp/go-metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

const statsServiceName = "kvwire"

var (
	metricsInstance *gometrics.Metrics
	metricsOnce     sync.Once
)

// sharedMetrics lazily builds one process-wide metrics instance backed by
// an in-memory sink. There is no scrape endpoint; callers read the sink
// through the go-metrics API.
func sharedMetrics() *gometrics.Metrics {
	metricsOnce.Do(func() {
		sink := gometrics.NewInmemSink(5*time.Second, 10*time.Minute)
		conf := gometrics.DefaultConfig(statsServiceName)
		conf.EnableHostname = false
		m, err := gometrics.New(conf, sink)
		if err != nil {
			logger.Error(err, "Failed to initialize metrics, stats disabled")
			return
		}
		metricsInstance = m
	})
	return metricsInstance
}

// CommandStats tracks per-command completion counts and latency samples.
// Only commands the pump took off the queue are counted; queued commands
// failed by a shutdown are not.
type CommandStats struct {
	counters *xsync.MapOf[string, *xsync.Counter]
	errors   *xsync.Counter
	metrics  *gometrics.Metrics
}

func newCommandStats() *CommandStats {
	return &CommandStats{
		counters: xsync.NewMapOf[string, *xsync.Counter](),
		errors:   xsync.NewCounter(),
		metrics:  sharedMetrics(),
	}
}

func (s *CommandStats) observe(name string, start time.Time, err error) {
	if name == "" {
		return
	}
	counter, _ := s.counters.LoadOrCompute(name, func() *xsync.Counter {
		return xsync.NewCounter()
	})
	counter.Inc()
	if err != nil {
		s.errors.Inc()
	}
	if s.metrics != nil {
		s.metrics.AddSampleWithLabels([]string{"command", "latency"},
			float32(time.Since(start).Microseconds()),
			[]gometrics.Label{{Name: "command", Value: name}})
		s.metrics.IncrCounterWithLabels([]string{"command", "count"}, 1,
			[]gometrics.Label{{Name: "command", Value: name}})
	}
}

// Count returns how many times the named command has completed.
func (s *CommandStats) Count(name string) int64 {
	if counter, ok := s.counters.Load(name); ok {
		return counter.Value()
	}
	return 0
}

// Errors returns how many commands completed with a failure.
func (s *CommandStats) Errors() int64 {
	return s.errors.Value()
}

// Snapshot copies the per-command counts.
func (s *CommandStats) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	s.counters.Range(func(name string, counter *xsync.Counter) bool {
		out[name] = counter.Value()
		return true
	})
	return out
}
