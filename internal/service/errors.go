package service

import "errors"

// ErrInvalidInput marks errors caused by the caller's input
var ErrInvalidInput = errors.New("invalid input")
