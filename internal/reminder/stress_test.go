package reminder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSchedulerStressConcurrentSchedule(t *testing.T) {
	s := NewScheduler(4096)
	s.Start()
	defer s.Stop()

	const workers = 8
	const perWorker = 200
	total := workers * perWorker

	now := time.Now().UTC()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				req := Request{
					ActivityID: fmt.Sprintf("w%d-%d", w, i),
					Title:      fmt.Sprintf("activity %d", i),
					Kind:       KindNotification,
					At:         now.Add(time.Duration((w+i)%50+10) * time.Millisecond),
				}
				if err := s.Schedule(context.Background(), req); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	deadline := time.After(5 * time.Second)
	received := 0
	for received < total {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting reminders: received=%d total=%d dropped=%d", received, total, s.Dropped())
		case <-s.C():
			received++
		}
	}
	if s.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", s.Dropped())
	}
}
