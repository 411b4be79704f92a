package persistence

import (
	"errors"
	"fmt"

	"github.com/salesflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// notFound maps gorm.ErrRecordNotFound to NOT_FOUND. The message never says
// whether the row exists for another tenant.
func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("%s not found", entity))
	}
	return err
}

// duplicate maps unique-key violations to ALREADY_EXISTS.
// It relies on gorm.Config.TranslateError being enabled.
func duplicate(err error, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.WrapDomainError(shared.CodeAlreadyExists, message, err)
	}
	return err
}

func staleVersion(entity string) error {
	return shared.NewDomainError(shared.CodeOptimisticLockFailed, fmt.Sprintf("%s was modified by another transaction", entity))
}
