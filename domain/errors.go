package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDataUnavailable means the product catalog has not been loaded.
var ErrDataUnavailable = errors.New("recommendation catalog unavailable")

// InvalidSeedError lists seed positions that are missing from the catalog or have no embedding.
type InvalidSeedError struct {
	Positions []int
	Reason    string
}

func (e *InvalidSeedError) Error() string {
	if len(e.Positions) == 0 {
		return fmt.Sprintf("invalid seed positions: %s", e.Reason)
	}

	parts := make([]string, len(e.Positions))
	for i, p := range e.Positions {
		parts[i] = itoa(p)
	}
	return fmt.Sprintf("invalid seed positions [%s]: %s", strings.Join(parts, ", "), e.Reason)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
