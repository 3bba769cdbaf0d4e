package workerpool

import "sync"

// jobQueue is a FIFO of pending jobs paired with a counting signal.
//
// Outside of shutdown, avail equals len(jobs) whenever the lock is held.
// stop adds synthetic units with no job behind them, one per worker, so
// idle workers wake up, see the stop flag and exit.
type jobQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	jobs    []Job
	avail   int
	stopped bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends job to the tail and releases one unit.
func (q *jobQueue) push(job Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.avail++
	q.mu.Unlock()
	q.cond.Signal()
}

// take blocks until a unit is available and consumes it. It returns false
// if the unit was a synthetic stop signal; the queue is not touched then.
func (q *jobQueue) take() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.avail == 0 {
		q.cond.Wait()
	}
	q.avail--

	if q.stopped {
		return nil, false
	}
	if len(q.jobs) == 0 {
		panic("workerpool: queue signalled with no pending job")
	}

	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	return job, true
}

// stop sets the stop flag and releases n synthetic units.
func (q *jobQueue) stop(n int) {
	q.mu.Lock()
	q.stopped = true
	q.avail += n
	q.mu.Unlock()
	q.cond.Broadcast()
}

// len returns the number of pending jobs.
func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
