package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gmocoin-bot/logging"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRunDueFiresOnInterval(t *testing.T) {
	s := New(time.Second, logging.Nop())
	var fast, slow int
	s.Every("fast", 5*time.Second, func(context.Context) { fast++ })
	s.Every("slow", time.Minute, func(context.Context) { slow++ })
	s.start(base)

	ctx := context.Background()
	for i := 1; i <= 60; i++ {
		s.runDue(ctx, base.Add(time.Duration(i)*time.Second))
	}
	assert.Equal(t, 12, fast)
	assert.Equal(t, 1, slow)
}

func TestRunDueCatchesUpOnce(t *testing.T) {
	s := New(time.Second, nil)
	n := 0
	s.Every("job", 5*time.Second, func(context.Context) { n++ })
	s.start(base)

	s.runDue(context.Background(), base.Add(time.Minute))
	s.runDue(context.Background(), base.Add(time.Minute+time.Second))
	assert.Equal(t, 1, n, "missed runs are not replayed")
	s.runDue(context.Background(), base.Add(time.Minute+5*time.Second))
	assert.Equal(t, 2, n)
}

func TestAsyncJobSkipsWhileBusy(t *testing.T) {
	s := New(time.Second, nil)
	release := make(chan struct{})
	var mu sync.Mutex
	runs := 0
	s.EveryAsync("connect", time.Second, func(context.Context) {
		mu.Lock()
		runs++
		mu.Unlock()
		<-release
	})
	s.start(base)

	ctx := context.Background()
	s.runDue(ctx, base.Add(time.Second))
	s.runDue(ctx, base.Add(2*time.Second))
	close(release)
	s.wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, runs)
}

func TestRunUsesInjectedTicks(t *testing.T) {
	s := New(time.Second, nil)
	ticks := make(chan time.Time)
	s.ticks = ticks
	s.now = func() time.Time { return base }

	fired := make(chan string, 4)
	s.Every("status", time.Second, func(context.Context) { fired <- "status" })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	ticks <- base.Add(time.Second)
	assert.Equal(t, "status", <-fired)
	cancel()
	<-done
}

func TestEveryRejectsBadJobs(t *testing.T) {
	s := New(0, nil)
	s.Every("zero", 0, func(context.Context) {})
	s.Every("nil", time.Second, nil)
	s.Every("ok", time.Second, func(context.Context) {})
	assert.Equal(t, []string{"ok"}, s.Names())
	assert.Equal(t, time.Second, s.Tick)
}
