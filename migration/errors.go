package migration

import "fmt"

// ChainError tags the MigrationChainError category of spec.md §7: a broken
// dependency chain, duplicate ids, a RawSQL operation blocking
// reconstruction, or a last-applied id absent from the chain.
type ChainError struct {
	msg string
}

func (e *ChainError) Error() string { return e.msg }

func newChainError(format string, args ...any) error {
	return &ChainError{msg: fmt.Sprintf("migration chain: %s", fmt.Sprintf(format, args...))}
}
