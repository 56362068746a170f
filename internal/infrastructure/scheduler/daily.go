// Package scheduler fires the daily digest trigger.
package scheduler

import (
	"context"
	"time"

	"NewsCaster/internal/ports"
)

// DailyScheduler fires once per day at a configured local time.
type DailyScheduler struct {
	hour     int
	minute   int
	location *time.Location
	stop     chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler builds the trigger. A nil location means UTC.
func NewDailyScheduler(hour, minute int, location *time.Location) *DailyScheduler {
	if location == nil {
		location = time.UTC
	}
	return &DailyScheduler{hour: hour, minute: minute, location: location}
}

// Start launches the trigger goroutine.
func (d *DailyScheduler) Start(ctx context.Context, job func(context.Context)) error {
	if job == nil {
		return nil
	}

	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go func() {
		for {
			timer := time.NewTimer(time.Until(d.nextFire(time.Now())))
			select {
			case <-timer.C:
				job(ctx)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-d.stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the trigger goroutine.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}

func (d *DailyScheduler) nextFire(now time.Time) time.Time {
	local := now.In(d.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
