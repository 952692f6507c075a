package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type CollectorSuite struct {
	suite.Suite
	collector *Collector
}

func (s *CollectorSuite) SetupTest() {
	fixed := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	s.collector = New(withClock(func() time.Time { return fixed }))
}

func TestCollectorSuite(t *testing.T) {
	suite.Run(t, new(CollectorSuite))
}

func (s *CollectorSuite) TestCounterSeriesAppends() {
	const k = 5
	for range k {
		s.collector.RecordCounter("wallet.service", "transfers_total", 1)
	}

	series := s.collector.ServiceMetrics("wallet.service")
	s.Require().Contains(series, "transfers_total")
	s.Equal(KindCounter, series["transfers_total"].Kind)
	s.Len(series["transfers_total"].Samples, k)
}

func (s *CollectorSuite) TestGaugeAndHistogram() {
	s.collector.RecordGauge("card.service", "open_disputes", 3)
	s.collector.RecordGauge("card.service", "open_disputes", 2)
	s.collector.RecordHistogram("card.service", "issue_latency_ms", 42.5)

	series := s.collector.ServiceMetrics("card.service")
	s.Equal(KindGauge, series["open_disputes"].Kind)
	s.Len(series["open_disputes"].Samples, 2)
	s.Equal(2.0, series["open_disputes"].Samples[1].Value)
	s.Equal(KindHistogram, series["issue_latency_ms"].Kind)
	s.Equal(42.5, series["issue_latency_ms"].Samples[0].Value)
}

func (s *CollectorSuite) TestPerformanceSummary() {
	s.collector.RecordResponseTime("tx.service", "submit", 100*time.Millisecond, true)
	s.collector.RecordResponseTime("tx.service", "submit", 200*time.Millisecond, true)
	s.collector.RecordResponseTime("tx.service", "submit", 100*time.Millisecond, false)

	summary := s.collector.Performance("tx.service")
	s.Equal(int64(3), summary.TotalRequests)
	s.Equal(int64(2), summary.SuccessfulRequests)
	s.Equal(int64(1), summary.FailedRequests)
	s.InDelta(150.0, summary.AverageResponseTime, 0.001)

	s.Run("histogram records every duration", func() {
		series := s.collector.ServiceMetrics("tx.service")
		s.Len(series["submit_duration_ms"].Samples, 3)
	})

	s.Run("unknown service yields zero summary", func() {
		s.Equal(Summary{}, s.collector.Performance("ghost"))
	})
}

func (s *CollectorSuite) TestDisabledServiceIsNoOp() {
	s.collector.RecordCounter("ramp.service", "deposits_total", 1)
	s.collector.Configure("ramp.service", false)
	s.collector.RecordCounter("ramp.service", "deposits_total", 1)
	s.collector.RecordResponseTime("ramp.service", "deposit", 50*time.Millisecond, true)

	s.Run("history survives the disable", func() {
		series := s.collector.ServiceMetrics("ramp.service")
		s.Len(series["deposits_total"].Samples, 1)
	})

	s.Run("re-enabling resumes collection", func() {
		s.collector.Configure("ramp.service", true)
		s.collector.RecordCounter("ramp.service", "deposits_total", 1)
		series := s.collector.ServiceMetrics("ramp.service")
		s.Len(series["deposits_total"].Samples, 2)
	})
}

func (s *CollectorSuite) TestReset() {
	s.collector.RecordCounter("user.service", "signups_total", 1)
	s.collector.RecordResponseTime("user.service", "signup", 80*time.Millisecond, true)

	s.collector.Reset("user.service")

	s.Empty(s.collector.ServiceMetrics("user.service"))
	s.Equal(Summary{}, s.collector.Performance("user.service"))
}

type recordingObserver struct {
	mu         sync.Mutex
	counters   int
	gauges     int
	histograms int
}

func (o *recordingObserver) ObserveCounter(string, string, float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counters++
}

func (o *recordingObserver) ObserveGauge(string, string, float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gauges++
}

func (o *recordingObserver) ObserveHistogram(string, string, float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.histograms++
}

func (s *CollectorSuite) TestObserverMirroring() {
	observer := &recordingObserver{}
	collector := New(WithObserver(observer))

	collector.RecordCounter("wallet.service", "transfers_total", 1)
	collector.RecordGauge("wallet.service", "balance_usd", 10)
	collector.RecordHistogram("wallet.service", "latency_ms", 5)

	s.Equal(1, observer.counters)
	s.Equal(1, observer.gauges)
	s.Equal(1, observer.histograms)

	s.Run("disabled services are not mirrored", func() {
		collector.Configure("wallet.service", false)
		collector.RecordCounter("wallet.service", "transfers_total", 1)
		s.Equal(1, observer.counters)
	})
}

func (s *CollectorSuite) TestConcurrentRecording() {
	const writers = 16
	const perWriter = 50

	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWriter {
				s.collector.RecordCounter("tx.service", "submits_total", 1)
			}
		}()
	}
	wg.Wait()

	series := s.collector.ServiceMetrics("tx.service")
	s.Len(series["submits_total"].Samples, writers*perWriter)
}
