package core

import (
	"errors"

	"timesheet.service/internal/ports/repository"
	"timesheet.service/internal/provider/tangerino"
)

var (
	ErrNotFound                   = repository.ErrNotFound
	ErrOccurrenceAlreadyProcessed = errors.New("occurrence already processed")
	ErrOccurrenceAlreadyResolved  = errors.New("occurrence already resolved")
	ErrInvalidAction              = errors.New("invalid action")
	ErrInvalidInput               = errors.New("invalid input")
	ErrProviderReadOnly           = tangerino.ErrReadOnly
)
