package eqrel

import (
	"errors"

	"github.com/hupe1980/eqrel/internal/bucket"
)

var (
	// ErrInvalidArgument is returned when an argument is out of range
	// (e.g. a Boundaries prefix longer than the relation's arity).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidUsage is the panic value (wrapped) for iterator precondition
	// violations, such as advancing or dereferencing an iterator at its end.
	ErrInvalidUsage = errors.New("invalid usage")

	// ErrInconsistent is the panic value (wrapped) for internal consistency
	// failures. It always indicates a defect, never a runtime condition.
	ErrInconsistent = bucket.ErrInconsistent
)
