package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedDriver = errors.New("unsupported exchange rate driver")
)
