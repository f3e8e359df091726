package application

import (
	"errors"

	"billing-service/internal/domain"
)

var ErrNotFound = domain.ErrNotFound
var ErrBadRequest = errors.New("bad request")

// ErrBaseCurrencyNotFound is the one resolver failure that is not turned into
// a payload: a company without a valid base currency cannot price anything.
var ErrBaseCurrencyNotFound = errors.New("base currency not configured")

var ErrDownload = errors.New("Download Exception")
var ErrZipNotFound = errors.New("update archive not found")

// ErrInvalidPath rejects step inputs that do not point into the update
// scratch area under the storage path.
var ErrInvalidPath = errors.New("path outside update scratch area")
var ErrUpdateInProgress = errors.New("update already in progress")
var ErrLockLost = errors.New("update lock lost")
