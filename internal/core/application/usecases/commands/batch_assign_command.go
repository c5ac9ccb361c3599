package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrBatchAssignCommandIsNotConstructed = errors.New(
	"BatchAssignCommand must be created via NewBatchAssignCommand constructor",
)

// BatchAssignCommand triggers one assignment run over all pending orders.
// With commit false the run is a preview: the result shows what would be
// assigned without changing anything.
type BatchAssignCommand struct {
	commit bool

	guard guard.ConstructorGuard
}

// NewBatchAssignCommand creates a batch assignment command.
func NewBatchAssignCommand(commit bool) BatchAssignCommand {
	return BatchAssignCommand{
		commit: commit,
		guard:  guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c BatchAssignCommand) Validate() error {
	return c.guard.Validate(ErrBatchAssignCommandIsNotConstructed)
}

// Commit reports whether the run applies its assignments.
func (c BatchAssignCommand) Commit() bool {
	return c.commit
}
