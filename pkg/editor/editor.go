// Package editor describes the parts of a host text editor that the item
// commands drive, and ships a file-backed host for running them outside one.
package editor

import "qiita-editor/pkg/models"

// Window is the editor window a command was invoked from.
type Window interface {
	// ActiveView returns the focused view, or nil when there is none.
	ActiveView() View
	NewFile() (View, error)
	// ShowQuickPanel presents entries for selection. onDone receives the
	// zero-based index of the chosen entry, or -1 when the panel is closed.
	// It may be called from any goroutine.
	ShowQuickPanel(entries []models.ListEntry, onDone func(index int))
	MessageDialog(msg string)
	StatusMessage(msg string)
}

// View is a text buffer with attached item metadata.
type View interface {
	Text() string
	Append(text string) error
	// Metadata returns nil when no item is attached.
	Metadata() *models.ItemMetadata
	// SetMetadata replaces the attached item metadata.
	SetMetadata(meta *models.ItemMetadata) error
}

type Browser interface {
	OpenNewTab(url string) error
}
