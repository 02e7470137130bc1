package customerr

import "github.com/pkg/errors"

var (
	ErrInvalidPeriod    = errors.New("invalid budget period")
	ErrAlreadyPersisted = errors.New("record already persisted")
	ErrNotFound         = errors.New("record not found")
	ErrIntegrity        = errors.New("several records share one key")
	ErrUnknownField     = errors.New("unknown record field")
	ErrNegativeAmount   = errors.New("amount must not be negative")
)
