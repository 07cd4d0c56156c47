package service

import (
	"errors"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/repository"
)

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.StoreError{Op: op, Err: err}
}

// lookupError maps a missing row to NotFoundError and anything else to StoreError.
func lookupError(entity, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return storeError("get "+entity, err)
}
