package database

import (
	"errors"

	"fanclub/pkg/apperr"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// Translate classifies storage errors: missing rows become NOT_FOUND and
// unique violations CONFLICT. what names the record in the message.
func Translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	if IsUniqueViolation(err) {
		return apperr.Wrap(apperr.KindConflict, err, "%s already exists", what)
	}
	return err
}

func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
