package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/domain"
)

// storageErr logs the cause server-side and returns the generic client-facing error.
func storageErr(l *zap.Logger, msg string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		l.Warn(msg, zap.Error(err))
		return apperr.Unavailable("Storage did not respond in time", err)
	}
	l.Error(msg, zap.Error(err))
	return apperr.Storage(err)
}

// mapRepoErr 仓储哨兵错误到 apperr
func mapRepoErr(l *zap.Logger, msg string, err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound) && notFound != "":
		return apperr.NotFound(notFound)
	case errors.Is(err, domain.ErrDuplicate) && conflict != "":
		return apperr.Conflict(conflict)
	}
	return storageErr(l, msg, err)
}
