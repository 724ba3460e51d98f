package repository

import (
	"errors"
	"fmt"

	"github.com/okian/bracketry/internal/domain/model"
)

// Sentinel kinds for store errors. The first two also match the engine
// kinds with errors.Is.
var (
	ErrNotFound          = fmt.Errorf("match %w", model.ErrNotFound)
	ErrConflictingResult = fmt.Errorf("stored result: %w", model.ErrConflictingResult)
	ErrInvalidResult     = errors.New("invalid match result")
	ErrClosed            = errors.New("store closed")
)
