package budget

import (
	"strings"

	"github.com/pkg/errors"
	"max.ks1230/bookkeeper/internal/model/customerr"
)

type Period string

const (
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
)

var Periods = []Period{Day, Week, Month}

// ParsePeriod accepts day, week or month in any letter case.
func ParsePeriod(name string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(name)))
	switch p {
	case Day, Week, Month:
		return p, nil
	}
	return "", errors.Wrapf(customerr.ErrInvalidPeriod, "unknown period %q, should be day, week or month", name)
}

// Record is a spending limit for a recurring period. Spent is a cache filled
// by reconciliation and is stale until the next recompute.
type Record struct {
	Key        int64
	Limitation int64
	Period     Period
	Spent      int64
}

func New(limitation int64, period string) (*Record, error) {
	if limitation < 0 {
		return nil, errors.Wrapf(customerr.ErrNegativeAmount, "budget limitation %d", limitation)
	}
	p, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	return &Record{Limitation: limitation, Period: p}, nil
}

func (r *Record) PK() int64 {
	return r.Key
}

func (r *Record) SetPK(key int64) {
	r.Key = key
}

func (r *Record) Exceeded() bool {
	return r.Spent > r.Limitation
}

// Remaining is negative once the budget is exceeded.
func (r *Record) Remaining() int64 {
	return r.Limitation - r.Spent
}
