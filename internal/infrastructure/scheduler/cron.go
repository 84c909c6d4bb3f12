package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"autoblog/internal/ports"
)

// CronScheduler fires a job on a daily schedule given as a five-field
// cron expression with numeric minute and hour ("30 9 * * *"). Specs it
// cannot parse fall back to a 24h interval starting immediately.
type CronScheduler struct {
	spec     string
	location *time.Location
	stop     chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for the given expression and zone.
func NewCronScheduler(spec string, location *time.Location) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{spec: spec, location: location}
}

// Start launches the scheduling goroutine. Calling Start twice is a
// no-op until Stop runs.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if c.stop != nil {
		return nil
	}

	minute, hour, ok := parseDailySpec(c.spec)
	c.stop = make(chan struct{})

	go func() {
		if !ok {
			c.tickEvery(ctx, 24*time.Hour, job)
			return
		}

		for {
			wait := time.Until(c.nextRun(minute, hour))
			timer := time.NewTimer(wait)
			select {
			case t := <-timer.C:
				job(t)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-c.stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the scheduling goroutine.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.stop == nil {
		return nil
	}
	close(c.stop)
	c.stop = nil
	return nil
}

func (c *CronScheduler) tickEvery(ctx context.Context, interval time.Duration, job func(time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	job(time.Now())
	for {
		select {
		case t := <-ticker.C:
			job(t)
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		}
	}
}

// nextRun returns the next wall-clock occurrence of hour:minute in the
// scheduler's location.
func (c *CronScheduler) nextRun(minute, hour int) time.Time {
	now := time.Now().In(c.location)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, c.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// parseDailySpec accepts "M H * * *" with numeric minute and hour.
func parseDailySpec(spec string) (minute, hour int, ok bool) {
	fields := strings.Fields(spec)
	if len(fields) != 5 {
		return 0, 0, false
	}

	minute, err := strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	hour, err = strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	return minute, hour, true
}
