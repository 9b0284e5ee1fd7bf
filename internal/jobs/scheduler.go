package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the background maintenance jobs: periodic provider health
// probes and the daily ledger snapshot.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// ProviderProber is implemented by the gateway.
type ProviderProber interface {
	ProbeAll(ctx context.Context)
}

// NewScheduler creates and registers all background jobs.
func NewScheduler(prober ProviderProber, probeInterval time.Duration, snapshot *LedgerSnapshot) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(probeInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			log.Println("🩺 [JOBS] Probing provider health...")
			prober.ProbeAll(ctx)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register health probe job: %w", err)
	}

	_, err = s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(2, 0, 0))),
		gocron.NewTask(func() {
			if err := snapshot.Run(); err != nil {
				log.Printf("⚠️  [JOBS] Ledger snapshot failed: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register ledger snapshot job: %w", err)
	}

	return &Scheduler{scheduler: s}, nil
}

// Start begins running all registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Printf("🕐 [JOBS] Background jobs started: provider health probe, daily ledger snapshot (2 AM)")
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
