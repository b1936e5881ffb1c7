package domain

import "context"

type InputFile interface {
	Name() string
	Text(ctx context.Context) (string, error)
}

type Deliverer interface {
	// Deliver hands one named blob to the user and returns where it went.
	Deliver(ctx context.Context, name string, content []byte) (string, error)
}

type Entry struct {
	Name    string
	Content []byte
}

type ArchiveOptions struct {
	// Level 0 stores entries without compression.
	Level int
}

type Archiver interface {
	Archive(entries []Entry, opts ArchiveOptions) ([]byte, error)
}
