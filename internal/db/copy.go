package db

import "github.com/jackc/pgx/v5"

// CopyRow is any staging row that can express itself in COPY column order.
type CopyRow interface {
	CopyValues() []any
}

// ChannelSource implements pgx.CopyFromSource by reading rows from a channel.
// This provides natural backpressure between the file reader and COPY writer.
type ChannelSource[T CopyRow] struct {
	ch      <-chan T
	current T
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource[T CopyRow](ch <-chan T) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource[T]) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource[T]) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

// Err returns any error encountered during iteration.
func (s *ChannelSource[T]) Err() error {
	return s.err
}

var _ pgx.CopyFromSource = (*ChannelSource[CopyRow])(nil)
