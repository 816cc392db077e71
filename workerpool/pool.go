package workerpool

import "sync"

// Job is a unit of work submitted to a Pool.
type Job func() error

// Pool runs jobs on a fixed number of worker goroutines. Jobs may be added
// from any goroutine; the queue is unbounded.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Job
	pending sync.WaitGroup
	stopped bool
	err     error
}

// New creates a pool with the given number of workers.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

// Add enqueues jobs for execution. Jobs added after Stop are discarded.
func (p *Pool) Add(jobs []Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.pending.Add(len(jobs))
	p.queue = append(p.queue, jobs...)
	p.cond.Broadcast()
}

// Wait blocks until every added job has completed (or been discarded by Stop)
// and returns the first error encountered by any job.
func (p *Pool) Wait() error {
	p.pending.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stop discards queued jobs and shuts the workers down. Jobs already running
// are allowed to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	dropped := len(p.queue)
	p.queue = nil
	p.stopped = true
	p.cond.Broadcast()
	p.mu.Unlock()

	for i := 0; i < dropped; i++ {
		p.pending.Done()
	}
}

func (p *Pool) work() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if p.stopped {
			p.mu.Unlock()
			return
		}
		job := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if err := job(); err != nil {
			p.mu.Lock()
			if p.err == nil {
				p.err = err
			}
			p.mu.Unlock()
		}
		p.pending.Done()
	}
}
