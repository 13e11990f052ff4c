package tracker

import (
	"errors"

	"StockTracker/internal/apperr"
)

var errNoSource = errors.New("no quote source configured")

func isNotFound(err error) bool { return errors.Is(err, apperr.ErrNotFound) }
