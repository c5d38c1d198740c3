package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"qiita-editor/pkg/config"
	"qiita-editor/pkg/editor"
	"qiita-editor/pkg/models"
	"qiita-editor/pkg/services"
)

const (
	PostNewItem  = "post-new-item"
	ListItems    = "list-items"
	UpdateItem   = "update-item"
	OpenItemURL  = "open-item-url"
	ShowItemInfo = "show-item-info"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrCommandDisabled = errors.New("command is disabled for this view")
)

// Args are the optional command arguments.
type Args struct {
	Private *bool `json:"private"`
}

type command struct {
	enabled func(meta *models.ItemMetadata) bool
	run     func(ctx context.Context, w editor.Window, args Args) *services.Task
}

// Dispatcher maps command names to their enablement rule and worker.
type Dispatcher struct {
	cfg     *config.Config
	workers *services.Workers
	browser editor.Browser
	tasks   *services.Registry
	ctx     context.Context

	commands map[string]command
}

func NewDispatcher(ctx context.Context, cfg *config.Config, workers *services.Workers, browser editor.Browser) *Dispatcher {
	d := &Dispatcher{
		cfg:     cfg,
		workers: workers,
		browser: browser,
		tasks:   services.NewRegistry(),
		ctx:     ctx,
	}
	draft := func(meta *models.ItemMetadata) bool { return !meta.IsPersisted() }
	linked := func(meta *models.ItemMetadata) bool { return meta.IsPersisted() }
	always := func(*models.ItemMetadata) bool { return true }

	d.commands = map[string]command{
		PostNewItem:  {enabled: draft, run: d.postNewItem},
		ListItems:    {enabled: always, run: d.listItems},
		UpdateItem:   {enabled: linked, run: d.updateItem},
		OpenItemURL:  {enabled: linked, run: d.openItemURL},
		ShowItemInfo: {enabled: linked, run: d.showItemInfo},
	}
	return d
}

// Names lists the commands in a stable order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func activeMetadata(w editor.Window) *models.ItemMetadata {
	view := w.ActiveView()
	if view == nil {
		return nil
	}
	return view.Metadata()
}

func (d *Dispatcher) IsEnabled(name string, w editor.Window) bool {
	cmd, ok := d.commands[name]
	return ok && cmd.enabled(activeMetadata(w))
}

// Enabled reports every command's state for the window's active view.
func (d *Dispatcher) Enabled(w editor.Window) map[string]bool {
	meta := activeMetadata(w)
	out := make(map[string]bool, len(d.commands))
	for name, cmd := range d.commands {
		out[name] = cmd.enabled(meta)
	}
	return out
}

// Run starts the named command. For list-items the returned task also
// covers the fetch of the selected item.
func (d *Dispatcher) Run(name string, w editor.Window, args Args) (*services.Task, error) {
	cmd, ok := d.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if !cmd.enabled(activeMetadata(w)) {
		return nil, fmt.Errorf("%w: %s", ErrCommandDisabled, name)
	}
	return cmd.run(d.ctx, w, args), nil
}

// Task looks up a task started by Run.
func (d *Dispatcher) Task(id string) (*services.Task, bool) {
	return d.tasks.Get(id)
}

// Wait blocks until every background task and its progress display ends.
func (d *Dispatcher) Wait() {
	d.tasks.Wait()
}

func (d *Dispatcher) spawn(ctx context.Context, w editor.Window, name, message string, fn func(ctx context.Context) error) *services.Task {
	t := d.tasks.Spawn(ctx, name, fn)
	d.tasks.Go(func() { services.TrackProgress(t, w, message, "Done.") })
	return t
}

func (d *Dispatcher) postNewItem(ctx context.Context, w editor.Window, args Args) *services.Task {
	private := d.cfg.Private()
	if args.Private != nil {
		private = *args.Private
	}
	view := w.ActiveView()
	return d.spawn(ctx, w, PostNewItem, "Post new item to qiita", func(ctx context.Context) error {
		return d.workers.PostNewItem(ctx, view, private)
	})
}

func (d *Dispatcher) listItems(ctx context.Context, w editor.Window, _ Args) *services.Task {
	return d.spawn(ctx, w, ListItems, "Getting item list from qiita", func(ctx context.Context) error {
		sel, err := d.workers.ListItems(ctx, w)
		if err != nil {
			return err
		}
		uuid, ok, err := sel.Wait(ctx)
		if err != nil || !ok {
			return err
		}
		// The list task's context ends with it, the fetch must not.
		get := d.spawn(d.ctx, w, "get-item", "Getting item from qiita", func(ctx context.Context) error {
			return d.workers.GetItem(ctx, w, uuid)
		})
		if err := get.Wait(ctx); err != nil {
			get.Cancel()
			return err
		}
		return nil
	})
}

func (d *Dispatcher) updateItem(ctx context.Context, w editor.Window, _ Args) *services.Task {
	view := w.ActiveView()
	uuid := view.Metadata().UUID
	return d.spawn(ctx, w, UpdateItem, "Update item to qiita", func(ctx context.Context) error {
		return d.workers.UpdateItem(ctx, view, uuid)
	})
}

func (d *Dispatcher) openItemURL(_ context.Context, w editor.Window, _ Args) *services.Task {
	meta := activeMetadata(w)
	return d.finished(OpenItemURL, d.browser.OpenNewTab(meta.URL))
}

func (d *Dispatcher) showItemInfo(_ context.Context, w editor.Window, _ Args) *services.Task {
	meta := activeMetadata(w)
	w.MessageDialog(fmt.Sprintf("uuid: %s \nurl: %s", meta.UUID, meta.URL))
	return d.finished(ShowItemInfo, nil)
}

// finished registers a command that completed inline.
func (d *Dispatcher) finished(name string, err error) *services.Task {
	t := services.Finished(name, err)
	d.tasks.Add(t)
	return t
}
