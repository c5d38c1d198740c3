package editor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"qiita-editor/pkg/models"
)

const sidecarPath = ".qiita/views.yaml"

// Presenter shows the interactive parts of a workspace window.
type Presenter interface {
	ShowQuickPanel(entries []models.ListEntry, onDone func(index int))
	MessageDialog(msg string)
	StatusMessage(msg string)
}

// Workspace is a host whose views are files under a directory. Item metadata
// of every file lives in one YAML sidecar so it survives restarts.
type Workspace struct {
	root      string
	presenter Presenter

	mu    sync.Mutex
	items map[string]models.ItemMetadata
}

// sidecar stores per-file view settings; only the item metadata key is used.
type sidecar struct {
	Views map[string]map[string]models.ItemMetadata `yaml:"views"`
}

func OpenWorkspace(root string, presenter Presenter) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{root: abs, presenter: presenter, items: map[string]models.ItemMetadata{}}

	content, err := os.ReadFile(filepath.Join(abs, sidecarPath))
	if errors.Is(err, os.ErrNotExist) {
		return ws, nil
	}
	if err != nil {
		return nil, err
	}
	var sc sidecar
	if err := yaml.Unmarshal(content, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", sidecarPath, err)
	}
	for path, settings := range sc.Views {
		if meta, ok := settings[models.MetadataKey]; ok {
			ws.items[path] = meta
		}
	}
	return ws, nil
}

func (ws *Workspace) Root() string {
	return ws.root
}

// SafeJoin resolves target inside the workspace, rejecting escapes.
func (ws *Workspace) SafeJoin(target string) (string, error) {
	if filepath.IsAbs(target) {
		rel, err := filepath.Rel(ws.root, target)
		if err != nil {
			return "", err
		}
		target = rel
	}
	cleanTarget := filepath.Clean(target)
	if cleanTarget == "." || cleanTarget == ".." || strings.HasPrefix(cleanTarget, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the workspace", target)
	}
	return filepath.ToSlash(cleanTarget), nil
}

// Window returns a window whose active view is the file at activePath.
// An empty activePath gives a window without an active view.
func (ws *Workspace) Window(activePath string) (*FileWindow, error) {
	w := &FileWindow{ws: ws}
	if activePath == "" {
		return w, nil
	}
	rel, err := ws.SafeJoin(activePath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(ws.root, rel)); err != nil {
		return nil, err
	}
	w.active = &FileView{ws: ws, rel: rel}
	return w, nil
}

func (ws *Workspace) metadata(rel string) *models.ItemMetadata {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	meta, ok := ws.items[rel]
	if !ok {
		return nil
	}
	return &meta
}

func (ws *Workspace) setMetadata(rel string, meta *models.ItemMetadata) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if meta == nil {
		delete(ws.items, rel)
	} else {
		ws.items[rel] = *meta
	}
	return ws.saveLocked()
}

func (ws *Workspace) saveLocked() error {
	sc := sidecar{Views: make(map[string]map[string]models.ItemMetadata, len(ws.items))}
	for path, meta := range ws.items {
		sc.Views[path] = map[string]models.ItemMetadata{models.MetadataKey: meta}
	}
	out, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	path := filepath.Join(ws.root, sidecarPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// FileWindow is a Window over a Workspace. It is cheap and not shared
// between commands.
type FileWindow struct {
	ws     *Workspace
	active *FileView
}

func (w *FileWindow) ActiveView() View {
	if w.active == nil {
		return nil
	}
	return w.active
}

// ActivePath is the workspace-relative path of the active view.
func (w *FileWindow) ActivePath() string {
	if w.active == nil {
		return ""
	}
	return w.active.rel
}

// NewFile creates an empty file in the workspace and focuses it.
func (w *FileWindow) NewFile() (View, error) {
	rel := "item-" + uuid.NewString()[:8] + ".md"
	f, err := os.OpenFile(filepath.Join(w.ws.root, rel), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	w.active = &FileView{ws: w.ws, rel: rel}
	return w.active, nil
}

func (w *FileWindow) ShowQuickPanel(entries []models.ListEntry, onDone func(index int)) {
	w.ws.presenter.ShowQuickPanel(entries, onDone)
}

func (w *FileWindow) MessageDialog(msg string) {
	w.ws.presenter.MessageDialog(msg)
}

func (w *FileWindow) StatusMessage(msg string) {
	w.ws.presenter.StatusMessage(msg)
}

// FileView is a workspace file.
type FileView struct {
	ws  *Workspace
	rel string
}

func (v *FileView) Path() string {
	return v.rel
}

func (v *FileView) Text() string {
	content, err := os.ReadFile(filepath.Join(v.ws.root, v.rel))
	if err != nil {
		return ""
	}
	return string(content)
}

func (v *FileView) Append(text string) error {
	f, err := os.OpenFile(filepath.Join(v.ws.root, v.rel), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (v *FileView) Metadata() *models.ItemMetadata {
	return v.ws.metadata(v.rel)
}

func (v *FileView) SetMetadata(meta *models.ItemMetadata) error {
	return v.ws.setMetadata(v.rel, meta)
}
