package reminder

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Fired is delivered on C() when a reminder comes due.
type Fired struct {
	Request
	FiredAt time.Time
}

type queue []Request

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool { return q[i].At.Before(q[j].At) }
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any) { *q = append(*q, x.(Request)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Scheduler is an in-process Gateway: a min-heap of pending reminders
// drained by one timer goroutine. Delivery never blocks; when the consumer
// falls behind, fired reminders are dropped and counted.
type Scheduler struct {
	mu      sync.Mutex
	queue   queue
	out     chan Fired
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped atomic.Uint64
	now     func() time.Time
}

func NewScheduler(bufferSize int) *Scheduler {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Scheduler{
		queue:  make(queue, 0),
		out:    make(chan Fired, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		now:    time.Now,
	}
}

func (s *Scheduler) C() <-chan Fired {
	return s.out
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	heap.Init(&s.queue)
	go s.loop()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stopCh)
	s.mu.Unlock()
	if started {
		<-s.doneCh
	}
}

// Schedule replaces nothing: an activity may hold several pending reminders
// until Cancel removes them all.
func (s *Scheduler) Schedule(_ context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSchedulerStopped
	}
	heap.Push(&s.queue, req)
	s.signalWakeup()
	return nil
}

// Cancel drops every pending reminder of activityID. Cancelling an
// activity with nothing queued is not an error.
func (s *Scheduler) Cancel(_ context.Context, activityID string) error {
	if activityID == "" {
		return ErrMissingActivity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.queue[:0]
	for _, req := range s.queue {
		if req.ActivityID != activityID {
			kept = append(kept, req)
		}
	}
	if len(kept) == len(s.queue) {
		return nil
	}
	s.queue = kept
	heap.Init(&s.queue)
	s.signalWakeup()
	return nil
}

// Pending returns a snapshot of queued reminders in trigger order.
func (s *Scheduler) Pending() []Request {
	s.mu.Lock()
	snapshot := make(queue, len(s.queue))
	copy(snapshot, s.queue)
	s.mu.Unlock()

	out := make([]Request, 0, len(snapshot))
	for snapshot.Len() > 0 {
		out = append(out, heap.Pop(&snapshot).(Request))
	}
	return out
}

func (s *Scheduler) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)
	defer close(s.out)

	var timer *time.Timer
	for {
		next, hasNext := s.peek()
		if !hasNext {
			select {
			case <-s.wakeup:
				continue
			case <-s.stopCh:
				return
			}
		}

		wait := next.At.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			now := s.now()
			for _, req := range s.popDue(now) {
				select {
				case s.out <- Fired{Request: req, FiredAt: now}:
				default:
					s.dropped.Add(1)
				}
			}
		case <-s.wakeup:
			continue
		case <-s.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (s *Scheduler) signalWakeup() {
	select {
	case s.wakeup <- struct{}{}:
	default:
	}
}

func (s *Scheduler) peek() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Request{}, false
	}
	return s.queue[0], true
}

func (s *Scheduler) popDue(now time.Time) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, 0)
	for len(s.queue) > 0 && !s.queue[0].At.After(now) {
		out = append(out, heap.Pop(&s.queue).(Request))
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
