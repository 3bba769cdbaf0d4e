package pgcr

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/ratepool/internal/testutil"
	"github.com/vnykmshr/ratepool/pkg/metrics"
	"github.com/vnykmshr/ratepool/pkg/results"
	"github.com/vnykmshr/ratepool/pkg/scheduling/workerpool"
)

// stubFetcher serves reports from memory. Odd ids are Gambit, even ids
// Crucible, and ids divisible by five fail.
type stubFetcher struct {
	calls atomic.Int64
}

func (f *stubFetcher) PostGameCarnageReport(_ context.Context, id int64) (*Report, error) {
	f.calls.Add(1)
	if id%5 == 0 {
		return nil, stderrors.New("not found")
	}
	hash := uint32(2)
	if id%2 == 1 {
		hash = 1
	}
	return &Report{
		Period:          "2021-05-12T17:00:00Z",
		ActivityDetails: ActivityDetails{DirectorActivityHash: hash, InstanceID: strconv.FormatInt(id, 10)},
		Entries:         []Entry{{CharacterID: "c"}},
	}, nil
}

var testManifest = NewManifest(map[uint32]string{1: "Gambit", 2: "Crucible"})

func TestTaskRecordsOutcome(t *testing.T) {
	collector := results.NewCollector[results.Row]()
	fetcher := &stubFetcher{}

	for _, id := range []int64{1, 2, 5} {
		Task{InstanceID: id, Fetcher: fetcher, Manifest: testManifest, Results: collector}.Run(context.Background())
	}

	testutil.AssertEqual(t, collector.Len(), 3)
	ok := collector.OK()
	testutil.AssertEqual(t, len(ok), 2)
	name, _ := ok[0].Value.Get("director_activity_name")
	testutil.AssertEqual(t, name, "Gambit")

	failed := collector.Failed()
	testutil.AssertEqual(t, len(failed), 1)
	testutil.AssertEqual(t, failed[0].Key, "5")
}

func TestTaskFilter(t *testing.T) {
	collector := results.NewCollector[results.Row]()
	fetcher := &stubFetcher{}

	for id := int64(1); id <= 4; id++ {
		Task{InstanceID: id, Filter: "Gambit", Fetcher: fetcher, Manifest: testManifest, Results: collector}.Run(context.Background())
	}

	testutil.AssertEqual(t, collector.Len(), 2)
	for _, o := range collector.OK() {
		name, _ := o.Value.Get("director_activity_name")
		testutil.AssertEqual(t, name, "Gambit")
	}
}

func TestScrape(t *testing.T) {
	fetcher := &stubFetcher{}
	s := &Scraper{
		Fetcher:  fetcher,
		Manifest: testManifest,
		Filter:   "Gambit",
		Pool: workerpool.Config{
			Workers:      8,
			RateCapacity: 50,
			RateInterval: time.Millisecond,
		},
	}

	collector, err := s.Scrape(context.Background(), Range{Start: 1, Count: 100})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, fetcher.calls.Load(), int64(100))
	// 50 odd ids, 10 of them divisible by five
	testutil.AssertEqual(t, len(collector.OK()), 40)
	testutil.AssertEqual(t, len(collector.Failed()), 20)
}

func TestScrapeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scraper{
		Fetcher:  &stubFetcher{},
		Manifest: testManifest,
		Pool:     workerpool.Config{Workers: 2, RateCapacity: 10, RateInterval: time.Millisecond},
	}
	collector, err := s.Scrape(ctx, Range{Start: 1, Count: 10})
	testutil.AssertTrue(t, stderrors.Is(err, context.Canceled))
	testutil.AssertEqual(t, collector.Len(), 0)
}

func TestScrapeInvalidPool(t *testing.T) {
	s := &Scraper{Fetcher: &stubFetcher{}}
	_, err := s.Scrape(context.Background(), Range{Start: 1, Count: 1})
	testutil.AssertError(t, err)
}

func TestScrapeWithMetrics(t *testing.T) {
	registry := metrics.NewRegistry(prometheus.NewRegistry())
	s := &Scraper{
		Fetcher:  &stubFetcher{},
		Manifest: testManifest,
		Pool:     workerpool.Config{Workers: 4, RateCapacity: 20, RateInterval: time.Millisecond},
		Metrics:  registry,
	}

	_, err := s.Scrape(context.Background(), Range{Start: 1, Count: 20})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, promtest.ToFloat64(registry.JobsCompleted.WithLabelValues("pgcr")), 20.0)
}

func TestScrapeAgainstServerRespectsRate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timed scrape in short mode")
	}

	var mu sync.Mutex
	var hits []time.Time
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, time.Now())
		mu.Unlock()

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		id, _ := strconv.ParseInt(parts[len(parts)-1], 10, 64)
		fmt.Fprintf(w, reportJSON, id)
	})

	s := &Scraper{
		Fetcher:  c,
		Manifest: NewManifest(map[uint32]string{3577607128: "Gambit"}),
		Pool:     workerpool.Config{Workers: 10, RateCapacity: 5, RateInterval: 100 * time.Millisecond},
	}

	start := time.Now()
	collector, err := s.Scrape(context.Background(), Range{Start: 100, Count: 15})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(collector.OK()), 15)

	// three windows of five: the last five cannot start before the second refill
	if elapsed := time.Since(start); elapsed < 190*time.Millisecond {
		t.Errorf("scraped 15 reports in %v, limiter not honored", elapsed)
	}

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertEqual(t, len(hits), 15)
}
