package budgets

import (
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"max.ks1230/bookkeeper/internal/entity/budget"
	"max.ks1230/bookkeeper/internal/entity/expense"
	"max.ks1230/bookkeeper/internal/model/customerr"
)

// Window returns the first and last calendar dates, both inclusive, of the
// period that contains asOf as seen in loc. Weeks start on Monday.
func Window(period budget.Period, asOf time.Time, loc *time.Location) (from, to time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	cal := &now.Config{WeekStartDay: time.Monday, TimeLocation: loc}
	n := cal.With(asOf.In(loc))

	switch period {
	case budget.Day:
		from, to = n.BeginningOfDay(), n.EndOfDay()
	case budget.Week:
		from, to = n.BeginningOfWeek(), n.EndOfWeek()
	case budget.Month:
		from, to = n.BeginningOfMonth(), n.EndOfMonth()
	default:
		return time.Time{}, time.Time{}, errors.Wrapf(customerr.ErrInvalidPeriod, "window for %q", period)
	}
	return expense.Day(from), expense.Day(to), nil
}
