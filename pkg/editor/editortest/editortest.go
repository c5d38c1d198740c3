// Package editortest provides in-memory editor hosts for tests.
package editortest

import (
	"strings"
	"sync"

	"qiita-editor/pkg/editor"
	"qiita-editor/pkg/models"
)

type View struct {
	mu   sync.Mutex
	text strings.Builder
	meta *models.ItemMetadata
}

func NewView(text string, meta *models.ItemMetadata) *View {
	v := &View{meta: meta}
	v.text.WriteString(text)
	return v
}

func (v *View) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text.String()
}

func (v *View) Append(text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.text.WriteString(text)
	return nil
}

func (v *View) Metadata() *models.ItemMetadata {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.meta == nil {
		return nil
	}
	meta := *v.meta
	return &meta
}

func (v *View) SetMetadata(meta *models.ItemMetadata) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.meta = meta
	return nil
}

// Panel is one ShowQuickPanel call.
type Panel struct {
	Entries []models.ListEntry
	OnDone  func(int)
}

// Window records everything commands do to it. NewViews and Panels receive
// each created view and opened panel.
type Window struct {
	mu       sync.Mutex
	active   editor.View
	views    []*View
	dialogs  []string
	statuses []string

	NewViews chan *View
	Panels   chan Panel
}

func NewWindow(active editor.View) *Window {
	return &Window{
		active:   active,
		NewViews: make(chan *View, 8),
		Panels:   make(chan Panel, 8),
	}
}

func (w *Window) ActiveView() editor.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *Window) NewFile() (editor.View, error) {
	v := NewView("", nil)
	w.mu.Lock()
	w.views = append(w.views, v)
	w.active = v
	w.mu.Unlock()
	w.NewViews <- v
	return v, nil
}

func (w *Window) ShowQuickPanel(entries []models.ListEntry, onDone func(index int)) {
	w.Panels <- Panel{Entries: entries, OnDone: onDone}
}

func (w *Window) MessageDialog(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dialogs = append(w.dialogs, msg)
}

func (w *Window) StatusMessage(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.statuses = append(w.statuses, msg)
}

func (w *Window) Views() []*View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*View(nil), w.views...)
}

func (w *Window) Dialogs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.dialogs...)
}

func (w *Window) Statuses() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.statuses...)
}

// Browser records opened URLs. OpenNewTab returns Err when it is set.
type Browser struct {
	Err error

	mu   sync.Mutex
	urls []string
}

func (b *Browser) OpenNewTab(url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.urls = append(b.urls, url)
	return b.Err
}

func (b *Browser) URLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.urls...)
}
