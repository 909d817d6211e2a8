// internal/app/features/tasks/status.go
package tasks

import (
	"fmt"
	"time"

	"github.com/clubops/memberhub/internal/app/system/dateutil"
	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status buckets, in display order.
const (
	StatusOverdue     = "overdue"
	StatusExpiresSoon = "expires soon"
	StatusOptional    = "optional"
	StatusUpToDate    = "up to date"
	StatusDone        = "done"
)

// NoExpiration is the expires value for tasks that never expire.
const NoExpiration = "no expiration"

var displayOrder = map[string]int{
	StatusOverdue:     0,
	StatusExpiresSoon: 1,
	StatusOptional:    2,
	StatusUpToDate:    3,
	StatusDone:        4,
}

// StatusRank returns the display order of a status bucket; lower sorts
// first.
func StatusRank(status string) int {
	if r, ok := displayOrder[status]; ok {
		return r
	}
	return len(displayOrder)
}

// Result is the evaluator's answer for one (member, task) pair. Expires is
// an ISO date, NoExpiration, or empty when no expiration can be derived.
type Result struct {
	Status  string
	Expires string
}

// Tracer observes evaluator decisions. The evaluator itself carries no
// debug switches; callers that need insight supply a tracer.
type Tracer interface {
	Evaluated(taskID, memberID primitive.ObjectID, r Result, elapsed time.Duration)
}

type nopTracer struct{}

func (nopTracer) Evaluated(primitive.ObjectID, primitive.ObjectID, Result, time.Duration) {}

// Evaluator derives status and expiration for (member, task) pairs against
// one configuration snapshot and warmed cache.
type Evaluator struct {
	Config *Config
	Cache  *Cache
	Today  time.Time
	Tracer Tracer
}

func NewEvaluator(cfg *Config, cache *Cache, today time.Time) *Evaluator {
	return &Evaluator{Config: cfg, Cache: cache, Today: dateutil.DateOf(today), Tracer: nopTracer{}}
}

// Evaluate computes the status bucket and expiration for one pair. comp is
// the latest visible completion or nil.
//
// Recurrence modes are disjoint and checked in priority order: optional,
// periodic, anniversary, one-shot.
func (e *Evaluator) Evaluate(task models.Task, memberID primitive.ObjectID, comp *models.TaskCompletion) Result {
	started := time.Now()
	r := e.evaluate(task, memberID, comp)
	if e.Tracer != nil {
		e.Tracer.Evaluated(task.ID, memberID, r, time.Since(started))
	}
	return r
}

func (e *Evaluator) evaluate(task models.Task, memberID primitive.ObjectID, comp *models.TaskCompletion) Result {
	today := dateutil.DateOf(e.Today)

	switch {
	case task.IsOptional:
		if comp == nil {
			return Result{Status: StatusOptional, Expires: NoExpiration}
		}
		return Result{Status: StatusDone, Expires: NoExpiration}

	case task.Period != nil:
		return e.periodic(task, memberID, comp, today)

	case task.DateOfYear != "":
		return e.anniversary(task, comp, today)

	default:
		if comp != nil {
			return Result{Status: StatusDone, Expires: NoExpiration}
		}
		return Result{Status: StatusOverdue, Expires: e.missingExpiration(task, memberID)}
	}
}

func (e *Evaluator) periodic(task models.Task, memberID primitive.ObjectID, comp *models.TaskCompletion, today time.Time) Result {
	if comp == nil {
		return Result{Status: StatusOverdue, Expires: e.missingExpiration(task, memberID)}
	}

	due := dateutil.AddPeriod(dateutil.DateOf(comp.Completion), *task.Period)
	expires := dateutil.FormatDate(due)

	if today.After(due) {
		return Result{Status: StatusOverdue, Expires: expires}
	}
	warn := due
	if task.ExpirySoon != nil {
		warn = dateutil.SubPeriod(due, *task.ExpirySoon)
	}
	if today.After(warn) {
		return Result{Status: StatusExpiresSoon, Expires: expires}
	}
	return Result{Status: StatusUpToDate, Expires: expires}
}

func (e *Evaluator) anniversary(task models.Task, comp *models.TaskCompletion, today time.Time) Result {
	expiresDate, err := anniversaryExpires(task, comp, today)
	if err != nil {
		// Malformed dateofyear is a configuration error; surface it as
		// overdue with no derivable expiration rather than failing the
		// whole evaluation sweep.
		return Result{Status: StatusOverdue, Expires: ""}
	}
	expires := dateutil.FormatDate(expiresDate)

	if today.After(expiresDate) {
		return Result{Status: StatusOverdue, Expires: expires}
	}
	if task.ExpirySoon != nil {
		warnStart := dateutil.SubPeriod(expiresDate, *task.ExpirySoon)
		if !today.Before(warnStart) {
			return Result{Status: StatusExpiresSoon, Expires: expires}
		}
	}
	return Result{Status: StatusUpToDate, Expires: expires}
}

// anniversaryExpires computes the expiration date of an anniversary task.
//
// Each cycle's completion window closes expirystarts after the task's
// MM-DD and opens exactly one year earlier. The walk finds the window
// containing the anchor (today, or the completion date) by advancing the
// window end year by year from anchor.year-2 until it passes the anchor.
func anniversaryExpires(task models.Task, comp *models.TaskCompletion, today time.Time) (time.Time, error) {
	month, day, err := dateutil.MonthDay(task.DateOfYear)
	if err != nil {
		return time.Time{}, fmt.Errorf("task %s: %w", task.Name, err)
	}
	if task.ExpiryStarts == nil {
		return time.Time{}, fmt.Errorf("task %s: anniversary task missing expirystarts", task.Name)
	}

	anchor := today
	if comp != nil {
		anchor = dateutil.DateOf(comp.Completion)
	}

	windowEnd := dateutil.AddPeriod(dateutil.Date(anchor.Year()-2, month, day), *task.ExpiryStarts)
	for !windowEnd.After(anchor) {
		windowEnd = dateutil.Date(windowEnd.Year()+1, windowEnd.Month(), windowEnd.Day())
	}
	windowStart := dateutil.Date(windowEnd.Year()-1, windowEnd.Month(), windowEnd.Day())

	if comp == nil {
		// First MM-DD at or after the window start.
		year := windowStart.Year()
		expiry := dateutil.Date(year, month, day)
		for expiry.Before(windowStart) {
			year++
			expiry = dateutil.Date(year, month, day)
		}
		return expiry, nil
	}

	// Completion credits the cycle whose window it fell in. When the
	// task's MM-DD is not after the window end's MM-DD, both land in the
	// same calendar year, so the next expiration is the following year.
	year := windowEnd.Year()
	if task.DateOfYear <= dateutil.MMDD(windowEnd) {
		year = windowEnd.Year() + 1
	}
	// A completion at or before the window start belongs to the previous
	// cycle.
	if !anchor.After(windowStart) {
		year--
	}
	return dateutil.Date(year, month, day), nil
}

// missingExpiration derives the synthetic "expected by" date for a task
// with no completion: the member's earliest relevant position start, then
// the interest's initial expiration, then nothing.
func (e *Evaluator) missingExpiration(task models.Task, memberID primitive.ObjectID) string {
	if e.Cache != nil {
		if earliest, ok := e.Cache.EarliestStart[[2]primitive.ObjectID{memberID, task.ID}]; ok {
			return dateutil.FormatDate(earliest)
		}
	}
	if e.Config.Interest.InitialExpiration != nil {
		return dateutil.FormatDate(*e.Config.Interest.InitialExpiration)
	}
	return ""
}
