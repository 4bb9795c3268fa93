package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Task is one unit of side-effect work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher runs tasks one at a time in submission order on its own
// goroutine. Each task gets its own timeout; a failing task is logged and the
// next one runs.
type Dispatcher struct {
	name    string
	queue   chan Task
	timeout time.Duration
	log     logrus.FieldLogger
	onFail  func(task string, err error)

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	cancel context.CancelFunc
	ctx    context.Context
}

func NewDispatcher(name string, size int, timeout time.Duration, log logrus.FieldLogger, onFail func(task string, err error)) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		name:    name,
		queue:   make(chan Task, size),
		timeout: timeout,
		log:     log.WithField("dispatcher", name),
		onFail:  onFail,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	go d.loop()
	return d
}

// Submit enqueues t without blocking. It returns false when the queue is full
// or the dispatcher is closed.
func (d *Dispatcher) Submit(t Task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- t:
		return true
	default:
		d.log.WithField("task", t.Name).Warn("queue full, dropping task")
		return false
	}
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for t := range d.queue {
		d.run(t)
	}
}

func (d *Dispatcher) run(t Task) {
	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := t.Run(ctx); err != nil {
		d.log.WithError(err).WithField("task", t.Name).Warn("sink task failed")
		if d.onFail != nil {
			d.onFail(t.Name, err)
		}
	}
}

// Close stops accepting tasks and waits for the queue to drain. When ctx ends
// first, in-flight work is cancelled and ctx.Err() is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.done
		return ctx.Err()
	}
}
