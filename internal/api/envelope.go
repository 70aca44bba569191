package api

import "github.com/abelbrown/parcelscout/internal/apperr"

// Envelope is the uniform {success, data, error} shape used for machine
// readable output.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Wrap converts a (value, error) pair into an Envelope.
func Wrap[T any](v T, err error) Envelope[T] {
	if err != nil {
		var zero T
		return Envelope[T]{
			Data:  zero,
			Error: apperr.UserMessage(err),
			Kind:  apperr.KindOf(err).String(),
		}
	}
	return Envelope[T]{Success: true, Data: v}
}
