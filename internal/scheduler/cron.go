package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/metrics"
	"github.com/lyfesaver74/embywatch/internal/models"
)

// consecutive failures before a category's entities go unavailable
const failureThreshold = 3

// Controller is one poll category's cycle
type Controller interface {
	Poll(ctx context.Context) error
	MarkUnavailable()
}

type job struct {
	category models.Category
	interval time.Duration
	ctrl     Controller

	mu       sync.Mutex
	entryID  cron.EntryID
	failures int
	stopped  bool
	running  bool
	lastOK   time.Time
}

// Scheduler drives each data category on its own interval. Categories never
// share mutable state, so a slow or failing category cannot stall the rest;
// the per-job running gate guarantees at most one in-flight poll per
// category, for cron firings and initial polls alike.
type Scheduler struct {
	cron        *cron.Cron
	jobs        []*job
	pollTimeout time.Duration
	logger      *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(pollTimeout time.Duration, logger *logrus.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &Scheduler{
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Add registers a poll category with its own interval
func (s *Scheduler) Add(category models.Category, interval time.Duration, ctrl Controller) {
	s.jobs = append(s.jobs, &job{
		category: category,
		interval: interval,
		ctrl:     ctrl,
	})
}

// Start schedules all registered categories and runs each once immediately
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	for _, j := range s.jobs {
		j := j
		entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
			s.runPoll(j)
		})
		if err != nil {
			return fmt.Errorf("failed to add %s job: %w", j.category, err)
		}
		j.entryID = entryID
	}

	s.cron.Start()
	s.logger.WithField("categories", len(s.jobs)).Info("Scheduler started")

	// Initial poll for every category without waiting an interval. Each
	// category gets its own goroutine: the in-flight gate in runPoll makes
	// a cron firing that overlaps a long initial poll skip, exactly as the
	// skip chain does for overlapping cron firings.
	for _, j := range s.jobs {
		j := j
		go s.runPoll(j)
	}

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runPoll executes one poll for a category with its timeout. A poll that
// exceeds the timeout is abandoned; the previous successful state stays
// published and the next scheduled poll proceeds independently.
func (s *Scheduler) runPoll(j *job) {
	j.mu.Lock()
	if j.stopped || j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.pollTimeout)
	defer cancel()

	start := time.Now()
	err := j.ctrl.Poll(ctx)
	elapsed := time.Since(start)

	metrics.PollTotal.WithLabelValues(string(j.category)).Inc()
	metrics.PollDuration.WithLabelValues(string(j.category)).Observe(elapsed.Seconds())

	if err == nil {
		j.mu.Lock()
		j.failures = 0
		j.lastOK = time.Now().UTC()
		j.mu.Unlock()
		return
	}

	metrics.PollFailures.WithLabelValues(string(j.category)).Inc()

	if emby.IsUnauthorized(err) {
		// Fatal to this category: stop polling until reconfigured.
		s.logger.WithError(err).WithField("category", j.category).
			Error("Unauthorized, stopping category until reconfigured")
		s.stopJob(j)
		j.ctrl.MarkUnavailable()
		return
	}

	j.mu.Lock()
	j.failures++
	failures := j.failures
	j.mu.Unlock()

	s.logger.WithError(err).WithFields(logrus.Fields{
		"category": j.category,
		"failures": failures,
	}).Warn("Poll failed")

	if failures >= failureThreshold {
		j.ctrl.MarkUnavailable()
	}
}

func (s *Scheduler) stopJob(j *job) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stopped {
		return
	}
	j.stopped = true
	s.cron.Remove(j.entryID)
}

// CategoryStatus is one category's scheduling state for the status endpoint
type CategoryStatus struct {
	Category    models.Category `json:"category"`
	Interval    string          `json:"interval"`
	Stopped     bool            `json:"stopped"`
	Failures    int             `json:"consecutive_failures"`
	LastSuccess *time.Time      `json:"last_success,omitempty"`
}

// Status reports each category's scheduling state
func (s *Scheduler) Status() []CategoryStatus {
	out := make([]CategoryStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		j.mu.Lock()
		status := CategoryStatus{
			Category: j.category,
			Interval: j.interval.String(),
			Stopped:  j.stopped,
			Failures: j.failures,
		}
		if !j.lastOK.IsZero() {
			t := j.lastOK
			status.LastSuccess = &t
		}
		j.mu.Unlock()
		out = append(out, status)
	}
	return out
}
