package workerpool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"

	"vrecon/internal/logging"
)

// Task is one unit of work. Tasks report their outcome through whatever
// channel or result slot the caller closed over; the pool only guarantees a
// panicking task never takes a worker down with it.
type Task func()

// LoadSampler reads the current system load as a percentage. Swapped out in
// tests for deterministic readings.
type LoadSampler func(ctx context.Context) (float64, error)

// CPUSampler measures CPU utilization over one second via gopsutil.
func CPUSampler(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, time.Second, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errors.New("cpu sample unavailable")
	}
	return percents[0], nil
}

// growFactor is the hysteresis gap: the pool grows only when load drops below
// growFactor * target, so a reading hovering at the target does not oscillate.
const growFactor = 0.7

// Options configures pool construction.
type Options struct {
	MinWorkers     int
	MaxWorkers     int
	TargetPercent  float64
	SampleInterval time.Duration
	Sampler        LoadSampler
	QueueDepth     int
	Logger         *slog.Logger
}

// State is a point-in-time snapshot of pool sizing.
type State struct {
	Workers    int
	Min        int
	Max        int
	LastLoad   float64
	LastResize time.Time
}

// Pool is a bounded concurrent task executor. A single controller goroutine
// owns resize decisions; workers only consume the queue.
type Pool struct {
	opts    Options
	tasks   chan Task
	quit    chan struct{}
	ctrlCtx context.Context
	stop    context.CancelFunc

	workers  sync.WaitGroup
	inflight sync.WaitGroup
	ctrl     sync.WaitGroup

	mu         sync.Mutex
	count      int
	lastLoad   float64
	lastResize time.Time
	started    bool
	stopped    bool

	logger *slog.Logger
}

// New constructs a pool. Bounds are clamped to sane minimums; the pool does
// not start any goroutines until Start.
func New(opts Options) *Pool {
	if opts.MinWorkers < 1 {
		opts.MinWorkers = 1
	}
	if opts.MaxWorkers < opts.MinWorkers {
		opts.MaxWorkers = opts.MinWorkers
	}
	if opts.TargetPercent <= 0 {
		opts.TargetPercent = 80
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 5 * time.Second
	}
	if opts.Sampler == nil {
		opts.Sampler = CPUSampler
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		opts:    opts,
		tasks:   make(chan Task, opts.QueueDepth),
		quit:    make(chan struct{}, opts.MaxWorkers),
		ctrlCtx: ctx,
		stop:    cancel,
		logger:  logging.NewComponentLogger(opts.Logger, "workerpool"),
	}
}

// Start launches the initial worker set and the load controller.
func (p *Pool) Start(initialWorkers int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	if initialWorkers < p.opts.MinWorkers {
		initialWorkers = p.opts.MinWorkers
	}
	if initialWorkers > p.opts.MaxWorkers {
		initialWorkers = p.opts.MaxWorkers
	}
	for i := 0; i < initialWorkers; i++ {
		p.spawnLocked()
	}

	p.ctrl.Add(1)
	go p.controller()
}

// Submit queues a task. Blocks when the queue is full; panics after Stop the
// same way sending on a closed channel would, so callers must not submit
// past shutdown.
func (p *Pool) Submit(task Task) {
	if task == nil {
		return
	}
	p.inflight.Add(1)
	p.tasks <- task
}

// Join blocks until every submitted task has finished, then shuts the
// controller down. Workers stay available for a subsequent Submit+Join cycle
// until Stop is called.
func (p *Pool) Join() {
	p.inflight.Wait()
	p.stop()
	p.ctrl.Wait()
}

// Stop signals all workers to exit after their current task and waits for
// them. In-flight external invocations are not interrupted.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.stop()
	// The controller must be gone before quit is closed: it sends retirement
	// signals on the same channel.
	p.ctrl.Wait()
	close(p.quit)
	p.workers.Wait()
}

// Snapshot returns the current sizing state.
func (p *Pool) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Workers:    p.count,
		Min:        p.opts.MinWorkers,
		Max:        p.opts.MaxWorkers,
		LastLoad:   p.lastLoad,
		LastResize: p.lastResize,
	}
}

func (p *Pool) spawnLocked() {
	p.count++
	p.workers.Add(1)
	go p.worker()
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for {
		select {
		case <-p.quit:
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.runTask(task)
		}
	}
}

func (p *Pool) runTask(task Task) {
	defer p.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", logging.Any("panic", r))
		}
	}()
	task()
}

// controller samples load once per interval and makes at most one resize
// decision per sample, which bounds the resize rate.
func (p *Pool) controller() {
	defer p.ctrl.Done()
	ticker := time.NewTicker(p.opts.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctrlCtx.Done():
			return
		case <-ticker.C:
			load, err := p.opts.Sampler(p.ctrlCtx)
			if err != nil {
				if p.ctrlCtx.Err() == nil {
					p.logger.Debug("load sample failed", logging.Error(err))
				}
				continue
			}
			p.adjust(load)
		}
	}
}

func (p *Pool) adjust(load float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastLoad = load

	target := p.opts.TargetPercent
	switch {
	case load > target && p.count > p.opts.MinWorkers:
		p.count--
		p.lastResize = time.Now()
		// Retire one worker; the buffered send is picked up as soon as a
		// worker finishes its current task.
		p.quit <- struct{}{}
		p.logger.Debug("removed worker",
			logging.Float64("load", load),
			logging.Int("workers", p.count))
	case load < target*growFactor && p.count < p.opts.MaxWorkers:
		p.spawnLocked()
		p.lastResize = time.Now()
		p.logger.Debug("added worker",
			logging.Float64("load", load),
			logging.Int("workers", p.count))
	}
}
