package jobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled maintenance work.
type Job interface {
	Name() string
	// Schedule returns a cron expression, or "" for on-demand jobs.
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)

	schedule := job.Schedule()
	if schedule == "" {
		log.Printf("[jobs] %s registered as on-demand", job.Name())
		return
	}

	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(context.Background()); err != nil {
			log.Printf("[jobs] %s failed: %v", job.Name(), err)
		}
	})
	if err != nil {
		log.Printf("[jobs] failed to schedule %s: %v", job.Name(), err)
		return
	}
	log.Printf("[jobs] %s scheduled: %s", job.Name(), schedule)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[jobs] scheduler started with %d jobs", len(s.jobs))
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[jobs] scheduler stopped")
}

// RunByName triggers a job manually.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Run(ctx)
		}
	}
	log.Printf("[jobs] no job named %q", name)
	return nil
}
