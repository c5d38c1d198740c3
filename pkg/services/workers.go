package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"qiita-editor/pkg/config"
	"qiita-editor/pkg/editor"
	"qiita-editor/pkg/models"
)

var ErrNoActiveView = errors.New("no active view")

// Workers run the network side of each command and apply the result to
// the editor. Every method is meant to run inside a Task.
type Workers struct {
	cfg     *config.Config
	api     *Client
	browser editor.Browser
}

func NewWorkers(cfg *config.Config, api *Client, browser editor.Browser) *Workers {
	return &Workers{cfg: cfg, api: api, browser: browser}
}

func payloadFromText(text string) *models.ItemPayload {
	title, tags, body := ParseBuffer(text)
	if tags == nil {
		tags = []models.Tag{}
	}
	return &models.ItemPayload{Title: title, Tags: tags, Body: body}
}

// PostNewItem creates an item from the view, links the view to it and opens
// the new item in the browser.
func (w *Workers) PostNewItem(ctx context.Context, view editor.View, private bool) error {
	if view == nil {
		return ErrNoActiveView
	}
	payload := payloadFromText(view.Text())
	payload.Private = &private

	article, err := w.api.CreateItem(ctx, payload)
	if err != nil {
		return err
	}
	if err := view.SetMetadata(article.Metadata()); err != nil {
		return err
	}
	w.openURL(article.URL)
	return nil
}

// openURL runs after the item is saved, so a browser failure does not fail
// the command.
func (w *Workers) openURL(url string) {
	if err := w.browser.OpenNewTab(url); err != nil {
		log.Printf("open %s: %v", url, err)
	}
}

// UpdateItem sends the re-parsed view to the item it is linked to.
func (w *Workers) UpdateItem(ctx context.Context, view editor.View, uuid string) error {
	if view == nil {
		return ErrNoActiveView
	}
	article, err := w.api.UpdateItem(ctx, uuid, payloadFromText(view.Text()))
	if err != nil {
		return err
	}
	if article.UUID == "" {
		article.UUID = uuid
	}
	if err := view.SetMetadata(article.Metadata()); err != nil {
		return err
	}
	w.openURL(article.URL)
	return nil
}

// GetItem opens a new view holding the item.
func (w *Workers) GetItem(ctx context.Context, window editor.Window, uuid string) error {
	article, err := w.api.GetItem(ctx, uuid)
	if err != nil {
		return err
	}

	view, err := window.NewFile()
	if err != nil {
		return err
	}
	// Linked before any text lands so the view is never an unlinked copy.
	if err := view.SetMetadata(article.Metadata()); err != nil {
		return err
	}
	for _, chunk := range RenderItem(article) {
		if err := view.Append(chunk); err != nil {
			return err
		}
	}
	return nil
}

// ListItems fetches the user's items and shows them for selection.
func (w *Workers) ListItems(ctx context.Context, window editor.Window) (*Selection, error) {
	articles, err := w.api.ListUserItems(ctx, w.cfg.Username)
	if err != nil {
		return nil, err
	}

	entries := make([]models.ListEntry, len(articles))
	for i := range articles {
		entries[i] = ProjectEntry(&articles[i])
	}

	sel := newSelection(articles)
	window.ShowQuickPanel(entries, sel.resolve)
	return sel, nil
}

// Selection is the single answer of a quick panel: the UUID of the chosen
// item, or none.
type Selection struct {
	articles []models.Article

	once sync.Once
	done chan struct{}
	uuid string
}

func newSelection(articles []models.Article) *Selection {
	return &Selection{articles: articles, done: make(chan struct{})}
}

// resolve is the panel callback. Only the first call counts.
func (s *Selection) resolve(index int) {
	s.once.Do(func() {
		if index >= 0 && index < len(s.articles) {
			s.uuid = s.articles[index].UUID
		}
		close(s.done)
	})
}

// Wait returns the chosen UUID, or ok=false when the panel was cancelled.
func (s *Selection) Wait(ctx context.Context) (uuid string, ok bool, err error) {
	select {
	case <-s.done:
		return s.uuid, s.uuid != "", nil
	case <-ctx.Done():
		return "", false, fmt.Errorf("waiting for selection: %w", ctx.Err())
	}
}
