// Package service holds the portal's business rules between handlers and repositories.
package service

import (
	"errors"

	"communityhub/internal/models"
)

// storeErr passes AppErrors through and reports anything else as a storage failure.
func storeErr(message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewStorageError(message, err)
}
