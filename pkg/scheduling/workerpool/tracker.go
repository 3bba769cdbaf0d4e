package workerpool

import "sync"

// completionTracker counts scheduled and completed jobs. completed never
// exceeds scheduled because a job is scheduled before it is queued.
type completionTracker struct {
	mu        sync.Mutex
	cond      *sync.Cond
	scheduled int64
	completed int64
}

func newCompletionTracker() *completionTracker {
	t := &completionTracker{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *completionTracker) schedule() {
	t.mu.Lock()
	t.scheduled++
	t.mu.Unlock()
}

// complete records one finished job and wakes every waiter to re-check.
func (t *completionTracker) complete() {
	t.mu.Lock()
	t.completed++
	t.mu.Unlock()
	t.cond.Broadcast()
}

// wait blocks until completed == scheduled.
func (t *completionTracker) wait() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.completed != t.scheduled {
		t.cond.Wait()
	}
}

func (t *completionTracker) counts() (scheduled, completed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scheduled, t.completed
}
