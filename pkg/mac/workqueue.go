package mac

import "sync"

// workQueue runs queued closures one at a time, in order, on a single
// goroutine. queue never blocks.
type workQueue struct {
	name  string
	depth int

	mu      sync.RWMutex
	jobs    chan func()
	running bool
	wg      sync.WaitGroup
}

func newWorkQueue(name string, depth int) *workQueue {
	return &workQueue{name: name, depth: depth}
}

// start launches the worker. It is a no-op on a running queue.
func (q *workQueue) start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.jobs = make(chan func(), q.depth)
	q.running = true
	q.wg.Add(1)
	go q.run(q.jobs)
}

func (q *workQueue) run(jobs <-chan func()) {
	defer q.wg.Done()
	for fn := range jobs {
		fn()
	}
}

// queue adds fn to the queue. It returns false if the queue is full or not
// running; fn is then never called.
func (q *workQueue) queue(fn func()) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return false
	}
	select {
	case q.jobs <- fn:
		return true
	default:
		return false
	}
}

// drain stops accepting work, runs everything already queued and waits for
// the worker to exit. It must not be called from the worker itself.
func (q *workQueue) drain() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}

// pending returns the number of queued jobs not yet started.
func (q *workQueue) pending() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.jobs == nil {
		return 0
	}
	return len(q.jobs)
}
