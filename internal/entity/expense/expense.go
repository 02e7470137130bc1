package expense

import "time"

// DateLayout is the on-disk form of Record.Date.
const DateLayout = "2006-01-02"

// Record is one spending event. Key 0 means the record was never persisted,
// Category 0 means the expense has no category.
type Record struct {
	Key      int64
	Amount   int64
	Category int64
	Date     time.Time
	Comment  string
}

// New does not check amount; the caller passes an already validated value >= 0.
func New(amount int64, category int64, date time.Time, comment string) *Record {
	return &Record{
		Amount:   amount,
		Category: category,
		Date:     Day(date),
		Comment:  comment,
	}
}

func (r *Record) PK() int64 {
	return r.Key
}

func (r *Record) SetPK(key int64) {
	r.Key = key
}

// Day truncates t to its calendar date, keeping the date t shows in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
