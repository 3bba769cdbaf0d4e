package workerpool_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vnykmshr/ratepool/pkg/scheduling/workerpool"
)

// Example demonstrates running a batch and collecting outcomes through a
// caller-owned, synchronized slice.
func Example() {
	pool := workerpool.New(4, 10, 10*time.Millisecond)

	var mu sync.Mutex
	var squares []int
	for i := 1; i <= 5; i++ {
		i := i
		pool.Submit(workerpool.JobFunc(func(ctx context.Context) {
			mu.Lock()
			squares = append(squares, i*i)
			mu.Unlock()
		}))
	}

	if err := pool.Shutdown(); err != nil {
		fmt.Println("shutdown:", err)
		return
	}

	sort.Ints(squares)
	fmt.Println(squares)
	// Output: [1 4 9 16 25]
}

// Example_progress shows the final report delivered once the pool drains.
func Example_progress() {
	config := workerpool.DefaultConfig()
	config.Workers = 2
	config.RateInterval = 10 * time.Millisecond
	config.Progress = workerpool.ProgressFunc(func(p workerpool.Progress) {
		if p.Done() {
			fmt.Printf("%d/%d done\n", p.Completed, p.Total)
		}
	})
	pool := workerpool.NewWithConfig(config)

	for i := 0; i < 3; i++ {
		pool.Submit(workerpool.JobFunc(func(ctx context.Context) {}))
	}
	pool.Shutdown()
	// Output: 3/3 done
}

// Example_shutdown shows that a pool is single use.
func Example_shutdown() {
	pool := workerpool.New(1, 1, time.Second)
	pool.Shutdown()

	err := pool.Submit(workerpool.JobFunc(func(ctx context.Context) {}))
	fmt.Println(err)
	fmt.Println(pool.State())
	// Output:
	// cannot submit job: worker pool has been shut down
	// stopped
}
