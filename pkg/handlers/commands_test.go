package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"qiita-editor/pkg/config"
	"qiita-editor/pkg/editor/editortest"
	"qiita-editor/pkg/models"
	"qiita-editor/pkg/services"
	"qiita-editor/pkg/services/apitest"
)

func newTestDispatcher(t *testing.T, items ...models.Article) (*Dispatcher, *apitest.Server, *editortest.Browser) {
	t.Helper()
	srv := apitest.NewServer(t, items...)
	cfg := &config.Config{Username: apitest.Username, Token: apitest.Token, BaseURL: srv.BaseURL()}
	browser := &editortest.Browser{}
	workers := services.NewWorkers(cfg, services.NewClient(cfg.BaseURL, cfg.TokenSource()), browser)
	return NewDispatcher(context.Background(), cfg, workers, browser), srv, browser
}

func TestEnablement(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	linked := &models.ItemMetadata{UUID: "abc", URL: "https://qiita.com/alice/items/abc"}

	tests := []struct {
		name   string
		window *editortest.Window
		want   map[string]bool
	}{
		{
			name:   "no active view",
			window: editortest.NewWindow(nil),
			want:   map[string]bool{PostNewItem: true, ListItems: true, UpdateItem: false, OpenItemURL: false, ShowItemInfo: false},
		},
		{
			name:   "draft",
			window: editortest.NewWindow(editortest.NewView("draft", nil)),
			want:   map[string]bool{PostNewItem: true, ListItems: true, UpdateItem: false, OpenItemURL: false, ShowItemInfo: false},
		},
		{
			name:   "metadata without url",
			window: editortest.NewWindow(editortest.NewView("draft", &models.ItemMetadata{UUID: "abc"})),
			want:   map[string]bool{PostNewItem: true, ListItems: true, UpdateItem: false, OpenItemURL: false, ShowItemInfo: false},
		},
		{
			name:   "linked",
			window: editortest.NewWindow(editortest.NewView("item", linked)),
			want:   map[string]bool{PostNewItem: false, ListItems: true, UpdateItem: true, OpenItemURL: true, ShowItemInfo: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Enabled(tt.window)
			for name, want := range tt.want {
				if got[name] != want {
					t.Errorf("%s enabled = %v, want %v", name, got[name], want)
				}
				if d.IsEnabled(name, tt.window) != want {
					t.Errorf("IsEnabled(%s) disagrees with Enabled", name)
				}
			}
		})
	}
}

func TestRunRejectsDisabledAndUnknown(t *testing.T) {
	d, srv, _ := newTestDispatcher(t)
	w := editortest.NewWindow(editortest.NewView("draft", nil))

	if _, err := d.Run(UpdateItem, w, Args{}); !errors.Is(err, ErrCommandDisabled) {
		t.Errorf("update on draft: %v", err)
	}
	if _, err := d.Run("delete-item", w, Args{}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown command: %v", err)
	}
	if len(srv.Requests()) != 0 {
		t.Error("rejected commands reached the API")
	}
}

func TestPostThenUpdate(t *testing.T) {
	d, srv, browser := newTestDispatcher(t)
	view := editortest.NewView("Hello\ngo\nbody", nil)
	w := editortest.NewWindow(view)

	task, err := d.Run(PostNewItem, w, Args{})
	if err != nil {
		t.Fatal(err)
	}
	if err := task.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	if req := srv.Requests()[0]; req.Payload.Private == nil || !*req.Payload.Private {
		t.Error("post should default to private")
	}
	if !d.IsEnabled(UpdateItem, w) || d.IsEnabled(PostNewItem, w) {
		t.Fatal("posted view should switch to update mode")
	}
	statuses := w.Statuses()
	if last := statuses[len(statuses)-1]; last != "Done." {
		t.Errorf("last status = %q", last)
	}

	view.Append("\nmore")
	task, err = d.Run(UpdateItem, w, Args{})
	if err != nil {
		t.Fatal(err)
	}
	if err := task.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	reqs := srv.Requests()
	if reqs[1].Path != "/api/v1/items/"+view.Metadata().UUID || reqs[1].Payload.Body != "body\nmore" {
		t.Errorf("update request = %+v", reqs[1])
	}
	if len(browser.URLs()) != 2 {
		t.Errorf("opened %v", browser.URLs())
	}
}

func TestPostPublicArgument(t *testing.T) {
	d, srv, _ := newTestDispatcher(t)
	public := false
	task, err := d.Run(PostNewItem, editortest.NewWindow(editortest.NewView("Hello\n\nbody", nil)), Args{Private: &public})
	if err != nil {
		t.Fatal(err)
	}
	task.Wait(context.Background())
	if p := srv.Requests()[0].Payload.Private; p == nil || *p {
		t.Errorf("private = %v", p)
	}
}

func TestListSelectsByPosition(t *testing.T) {
	items := []models.Article{
		{UUID: "u0", Title: "same", RawBody: "zero", URL: "https://qiita.com/alice/items/u0"},
		{UUID: "u1", Title: "same", RawBody: "one", URL: "https://qiita.com/alice/items/u1"},
		{UUID: "u2", Title: "a", RawBody: "two", URL: "https://qiita.com/alice/items/u2"},
	}
	d, srv, _ := newTestDispatcher(t, items...)
	w := editortest.NewWindow(nil)

	task, err := d.Run(ListItems, w, Args{})
	if err != nil {
		t.Fatal(err)
	}
	panel := <-w.Panels
	panel.OnDone(1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := task.Wait(ctx); err != nil {
		t.Fatalf("list task: %v", err)
	}
	d.Wait()

	views := w.Views()
	if len(views) != 1 {
		t.Fatalf("created %d views", len(views))
	}
	if got := views[0].Text(); got != "same\n\none" {
		t.Errorf("text = %q", got)
	}
	if meta := views[0].Metadata(); meta == nil || meta.UUID != "u1" || meta.URL != "https://qiita.com/alice/items/u1" {
		t.Errorf("metadata = %+v", meta)
	}

	reqs := srv.Requests()
	if last := reqs[len(reqs)-1]; last.Path != "/api/v1/items/u1" {
		t.Errorf("fetched %s", last.Path)
	}
}

func TestListFailedFetchFailsList(t *testing.T) {
	d, srv, _ := newTestDispatcher(t, models.Article{UUID: "u0", Title: "a"})
	w := editortest.NewWindow(nil)

	task, err := d.Run(ListItems, w, Args{})
	if err != nil {
		t.Fatal(err)
	}
	panel := <-w.Panels
	srv.Fail(500)
	panel.OnDone(0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := task.Wait(ctx); err == nil {
		t.Fatal("list task should carry the fetch failure")
	}
	d.Wait()

	if len(w.Views()) != 0 {
		t.Error("failed fetch created a view")
	}
	failed := false
	for _, s := range w.Statuses() {
		if strings.HasPrefix(s, "Getting item list from qiita: failed") {
			failed = true
		}
	}
	if !failed {
		t.Errorf("statuses = %q", w.Statuses())
	}
}

func TestListCancelled(t *testing.T) {
	d, srv, _ := newTestDispatcher(t, models.Article{UUID: "u0", Title: "a"})
	w := editortest.NewWindow(nil)

	task, err := d.Run(ListItems, w, Args{})
	if err != nil {
		t.Fatal(err)
	}
	(<-w.Panels).OnDone(-1)
	if err := task.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	if len(w.Views()) != 0 {
		t.Error("cancelled selection created a view")
	}
	if n := len(srv.Requests()); n != 1 {
		t.Errorf("got %d requests, want only the list call", n)
	}
}

func TestOpenAndShowInfo(t *testing.T) {
	d, srv, browser := newTestDispatcher(t)
	meta := &models.ItemMetadata{UUID: "abc", URL: "https://qiita.com/alice/items/abc"}
	w := editortest.NewWindow(editortest.NewView("item", meta))

	if _, err := d.Run(OpenItemURL, w, Args{}); err != nil {
		t.Fatal(err)
	}
	if urls := browser.URLs(); len(urls) != 1 || urls[0] != meta.URL {
		t.Errorf("opened %v", urls)
	}

	if _, err := d.Run(ShowItemInfo, w, Args{}); err != nil {
		t.Fatal(err)
	}
	dialogs := w.Dialogs()
	if len(dialogs) != 1 || dialogs[0] != "uuid: abc \nurl: https://qiita.com/alice/items/abc" {
		t.Errorf("dialogs = %q", dialogs)
	}
	if len(srv.Requests()) != 0 {
		t.Error("local commands should not call the API")
	}
}

func TestRunRegistersTasks(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	draft := editortest.NewWindow(editortest.NewView("Hello\ngo\nbody", nil))
	linked := editortest.NewWindow(editortest.NewView("item", &models.ItemMetadata{
		UUID: "abc", URL: "https://qiita.com/alice/items/abc",
	}))

	posted, err := d.Run(PostNewItem, draft, Args{})
	if err != nil {
		t.Fatal(err)
	}
	shown, err := d.Run(ShowItemInfo, linked, Args{})
	if err != nil {
		t.Fatal(err)
	}
	posted.Wait(context.Background())
	d.Wait()

	for _, task := range []*services.Task{posted, shown} {
		got, ok := d.Task(task.ID)
		if !ok || got != task {
			t.Errorf("Task(%s) = %v, %v", task.Name, got, ok)
		}
	}
}

func TestFailedPostReportsFailure(t *testing.T) {
	d, srv, browser := newTestDispatcher(t)
	srv.Fail(500)
	view := editortest.NewView("Hello\ngo\nbody", nil)
	w := editortest.NewWindow(view)

	task, err := d.Run(PostNewItem, w, Args{})
	if err != nil {
		t.Fatal(err)
	}
	if err := task.Wait(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	d.Wait()

	statuses := w.Statuses()
	if last := statuses[len(statuses)-1]; !strings.HasPrefix(last, "Post new item to qiita: failed") {
		t.Errorf("last status = %q", last)
	}
	if view.Metadata() != nil || len(browser.URLs()) != 0 {
		t.Error("failed post changed the editor")
	}
}
