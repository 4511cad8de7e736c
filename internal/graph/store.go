package graph

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingDependency is returned when a delta's read dependency does not
// hold in the store, e.g. a delivery arrives before its match.
var ErrMissingDependency = errors.New("missing dependency")

// DependencyError names the requirement that failed.
type DependencyError struct {
	Requirement Requirement
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingDependency, e.Requirement)
}

func (e *DependencyError) Unwrap() error {
	return ErrMissingDependency
}

// Counts summarizes the contents of a store by node label and relationship type.
type Counts struct {
	Nodes         map[string]int
	Relationships map[string]int
}

// Store applies deltas under merge semantics.
type Store interface {
	// Apply checks every requirement and applies every op of the given deltas
	// in a single transaction. Nothing is committed if any step fails.
	Apply(ctx context.Context, deltas ...Delta) error

	// NodeProperties returns all properties of a node, key properties included.
	// ok is false when the node does not exist.
	NodeProperties(ctx context.Context, node NodeRef) (props Properties, ok bool, err error)

	// Counts returns the number of nodes per label and relationships per type.
	Counts(ctx context.Context) (Counts, error)

	Close() error
}
