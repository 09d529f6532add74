package essay

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically reverts essays left in the grading state by a crashed
// or abandoned grading run.
type Sweeper struct {
	svc  *Service
	cron *cron.Cron
}

// NewSweeper schedules RevertStaleGrading. schedule is any robfig/cron spec,
// e.g. "@every 1m". Overlapping runs are skipped.
func NewSweeper(svc *Service, schedule string) (*Sweeper, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	sw := &Sweeper{svc: svc, cron: c}
	if _, err := c.AddFunc(schedule, sw.runOnce); err != nil {
		return nil, err
	}
	return sw, nil
}

func (sw *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := sw.svc.RevertStaleGrading(ctx); err != nil {
		sw.svc.log.Error("stale grading sweep failed", "error", err)
	}
}

func (sw *Sweeper) Start() { sw.cron.Start() }

// Stop waits for a running sweep to finish or ctx to expire.
func (sw *Sweeper) Stop(ctx context.Context) {
	done := sw.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
