package core

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/mattn/go-isatty"
)

// StdinSource reads the change stream from a file, normally os.Stdin.
type StdinSource struct {
	File *os.File
}

var _ contract.InputSource = &StdinSource{} // Compile-time check

// NewStdinSource creates a source over os.Stdin.
func NewStdinSource() *StdinSource {
	return &StdinSource{File: os.Stdin}
}

// Interactive reports whether the file is a terminal rather than a pipe.
func (s *StdinSource) Interactive() bool {
	fd := s.File.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Open returns the file without taking ownership of it.
func (s *StdinSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(s.File), nil
}

// ReaderSource serves an in-memory stream. It is never interactive.
type ReaderSource struct {
	Reader io.Reader
}

var _ contract.InputSource = &ReaderSource{} // Compile-time check

// NewReaderSource creates a source over r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{Reader: r}
}

// Interactive implements the InputSource interface.
func (s *ReaderSource) Interactive() bool { return false }

// Open implements the InputSource interface.
func (s *ReaderSource) Open(_ context.Context) (io.ReadCloser, error) {
	if rc, ok := s.Reader.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(s.Reader), nil
}

// GitDiffSource streams the names of files changed between two refs.
type GitDiffSource struct {
	Client    contract.GitClient
	RepoPath  string
	BaseRef   string
	TargetRef string
}

var _ contract.InputSource = &GitDiffSource{} // Compile-time check

// Interactive implements the InputSource interface.
func (s *GitDiffSource) Interactive() bool { return false }

// Open runs git diff and serves its output one path per line.
func (s *GitDiffSource) Open(ctx context.Context) (io.ReadCloser, error) {
	files, err := s.Client.GetChangedFilesBetweenRefs(ctx, s.RepoPath, s.BaseRef, s.TargetRef)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(strings.Join(files, "\n"))), nil
}

// SelectInput picks the change stream for cfg. A base ref means the stream
// comes from git; otherwise it is stdin.
func SelectInput(cfg *contract.Config, client contract.GitClient) contract.InputSource {
	if cfg.BaseRef != "" {
		return &GitDiffSource{
			Client:    client,
			RepoPath:  cfg.GitRoot,
			BaseRef:   cfg.BaseRef,
			TargetRef: cfg.TargetRef,
		}
	}
	return NewStdinSource()
}
