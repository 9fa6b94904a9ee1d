package client

import "errors"

// DropItemKind mirrors what a drag-and-drop source reports for each item.
type DropItemKind string

const (
	DropItemFile   DropItemKind = "file"
	DropItemString DropItemKind = "string"
)

// DropItem is one entry offered by a drop, with directory detection when
// the source supports it.
type DropItem struct {
	Kind        DropItemKind
	IsDirectory bool
	File        *CandidateFile
}

// DropEvent carries the items list when the source exposes one, else the
// plain files list fallback.
type DropEvent struct {
	Items []DropItem
	Files []CandidateFile
}

var (
	ErrMultipleItems = errors.New("Please drop a single file — folders or multiple files are not allowed.")
	ErrNotAFile      = errors.New("Dropped item is not a file.")
	ErrNoFile        = errors.New("No file detected.")
	errDroppedFolder = errors.New("Folders are not allowed. Please drop a single file.")
)

// ClassifyDrop turns a drop event into a single accepted candidate or a
// rejection. More than one offered item is rejected before inspecting any
// of them; directory items are rejected without reading their contents.
func ClassifyDrop(ev DropEvent) (CandidateFile, error) {
	if len(ev.Items) > 0 {
		if len(ev.Items) > 1 {
			return CandidateFile{}, ErrMultipleItems
		}

		item := ev.Items[0]
		if item.Kind != DropItemFile {
			return CandidateFile{}, ErrNotAFile
		}
		if item.IsDirectory {
			return CandidateFile{}, errDroppedFolder
		}

		f := item.File
		if f == nil {
			// Some sources report the item but only populate the files list.
			if len(ev.Files) == 0 {
				return CandidateFile{}, ErrNoFile
			}
			f = &ev.Files[0]
		}
		if hasFolderPath(*f) {
			return CandidateFile{}, errDroppedFolder
		}
		return *f, nil
	}

	// Fallback path for sources without an items list.
	if len(ev.Files) == 0 {
		return CandidateFile{}, ErrNoFile
	}
	if len(ev.Files) > 1 {
		return CandidateFile{}, ErrMultipleItems
	}
	f := ev.Files[0]
	if hasFolderPath(f) {
		return CandidateFile{}, errDroppedFolder
	}
	return f, nil
}

func hasFolderPath(f CandidateFile) bool {
	for _, r := range f.RelativePath {
		if r == '/' {
			return true
		}
	}
	return false
}
