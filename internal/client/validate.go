// Package client implements the uploading side of the system: candidate
// file validation, drop-event classification and the multipart transport
// that talks to the server.
package client

import (
	"errors"
	"fmt"
	"strings"
)

// MaxFileSize is the upload ceiling, 200 MiB.
const MaxFileSize = 200 * 1024 * 1024

// CandidateFile is a file offered by a picker or a drop, before
// validation. RelativePath is set when the file came with a folder path
// attached; SizeKnown is false when the size could not be read at all.
type CandidateFile struct {
	Name         string
	RelativePath string
	Size         int64
	SizeKnown    bool
}

var (
	ErrFolderNotAllowed = errors.New("Folders are not allowed. Please select a single file.")
	ErrSizeUnknown      = errors.New("Could not determine file size. Try a different file or browser.")
)

// Validate accepts or rejects a single candidate file. On acceptance the
// caller starts the upload immediately; there is no confirm step.
func Validate(f CandidateFile) error {
	// Folder-origin heuristic: a relative path with a separator means the
	// file was picked as part of a directory.
	if strings.Contains(f.RelativePath, "/") {
		return ErrFolderNotAllowed
	}

	if !f.SizeKnown || f.Size < 0 {
		return ErrSizeUnknown
	}

	if f.Size > MaxFileSize {
		return fmt.Errorf("File too large. Max allowed %d MB.", MaxFileSize/(1024*1024))
	}

	return nil
}
