package scan

import "sync"

// dispatcher runs posted functions one at a time in FIFO order.
// A worker goroutine exists only while the queue is non-empty.
type dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

// post enqueues fn. It never blocks on fn and may be called from any
// goroutine, including from inside a function being dispatched.
func (d *dispatcher) post(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	go d.drain()
}

// drain runs queued functions until the queue is empty.
func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.running = false
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		fn()
	}
}
