package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when an update or delete matched no row
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the requested row does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
