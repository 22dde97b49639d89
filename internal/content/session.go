package content

import (
	"context"
	"errors"

	"github.com/cespare/xxhash/v2"

	"folio/internal/model"
	"folio/internal/outline"
)

var (
	ErrUnsaved       = errors.New("unsaved changes")
	ErrSessionClosed = errors.New("edit session closed")
)

// Session tracks one editing buffer against the content it was opened with.
type Session struct {
	sync     *Synchronizer
	id       model.NodeID
	baseline string
	digest   uint64
	closed   bool
}

// Open starts an edit session for id with its current content as the baseline.
func (s *Synchronizer) Open(ctx context.Context, id model.NodeID) (*Session, error) {
	cur, err := s.CurrentContent(ctx, id)
	if err != nil {
		return nil, err
	}
	se := &Session{sync: s, id: id}
	se.rebase(cur)
	return se, nil
}

func (se *Session) rebase(content string) {
	se.baseline = content
	se.digest = xxhash.Sum64String(content)
}

func (se *Session) NodeID() model.NodeID { return se.id }

// Baseline is the content the editor buffer should start from.
func (se *Session) Baseline() string { return se.baseline }

func (se *Session) Closed() bool { return se.closed }

// Dirty reports whether buffer differs from the last saved or opened content.
func (se *Session) Dirty(buffer string) bool {
	return len(buffer) != len(se.baseline) || xxhash.Sum64String(buffer) != se.digest
}

// Save persists buffer. A draft save keeps the session open and rebases it on the node's
// current content, which stays the final entry if one exists; a final save closes it.
func (se *Session) Save(ctx context.Context, buffer string, asDraft bool) (outline.Node, error) {
	if se.closed {
		return outline.Node{}, ErrSessionClosed
	}
	n, err := se.sync.Save(ctx, se.id, buffer, asDraft)
	if err != nil {
		return outline.Node{}, err
	}
	cur, err := se.sync.CurrentContent(ctx, se.id)
	if err != nil {
		return n, err
	}
	se.rebase(cur)
	if !asDraft {
		se.closed = true
	}
	return n, nil
}

// Close ends the session. With unsaved changes it returns ErrUnsaved unless force is set.
func (se *Session) Close(buffer string, force bool) error {
	if se.closed {
		return nil
	}
	if !force && se.Dirty(buffer) {
		return ErrUnsaved
	}
	se.closed = true
	return nil
}
