package models

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound        = errors.New("item not found")
	ErrUnsupportedItemType = errors.New("unsupported item type")
	ErrAlreadyTargetFormat = errors.New("already jpg/png, skipped")
	ErrNoImagesFound       = errors.New("no webp images found")
	ErrConcurrentJob       = errors.New("a conversion job is already running")
	ErrNoInputItems        = errors.New("no input items")
	ErrNotWebP             = errors.New("not a webp image")
)

// ConversionError reports a failed decode, encode or write of one image
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Archive operations reported by ArchiveError
const (
	ArchiveExtract = "extract"
	ArchiveWrite   = "write"
)

// ArchiveError reports a failure reading or writing a ZIP archive
type ArchiveError struct {
	Op   string
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// OutputDirError reports that the output directory could not be created.
// It is fatal to the job.
type OutputDirError struct {
	Path string
	Err  error
}

func (e *OutputDirError) Error() string {
	return fmt.Sprintf("create output directory %s: %v", e.Path, e.Err)
}

func (e *OutputDirError) Unwrap() error { return e.Err }
