package outline

import (
	"errors"
	"fmt"

	"folio/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidKind rejects structurally impossible commands (a child under a subsection, a
	// subsection directly under a chapter). It is reported as a NotFound-equivalent no-op.
	ErrInvalidKind = errors.New("invalid kind")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

func errNodeNotFound(id model.NodeID) error {
	return NotFoundError{Kind: "node", ID: string(id)}
}

type KindError struct {
	Parent model.Kind
	Child  model.Kind
}

func (e KindError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("%s cannot be created at the top level", e.Child)
	}
	return fmt.Sprintf("%s cannot contain %s", e.Parent, e.Child)
}

func (e KindError) Is(target error) bool {
	return target == ErrInvalidKind || target == ErrNotFound
}

// ParseError reports a malformed flat layout row.
type ParseError struct {
	Row    int
	Reason string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("outline row %d: %s", e.Row, e.Reason)
}
