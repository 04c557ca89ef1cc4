// Package services wraps the backend resources the dashboard works with:
// transactions, the notice board, company members and user settings.
package services

import (
	"context"
	"errors"
	"io"
)

// API is the subset of the backend client the services need.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
	Upload(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file io.Reader, out any) error
	Download(ctx context.Context, path string) (io.ReadCloser, error)
}

var (
	ErrTransactionLocked = errors.New("transaction is locked and cannot be deleted")
	ErrNoUser            = errors.New("cannot create transaction: admin user ID not found")
	ErrMissingID         = errors.New("id is required")
)

// wireTime is the timestamp layout the backend expects in payloads.
const wireTime = "2006-01-02T15:04:05.000Z07:00"
