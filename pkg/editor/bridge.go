package editor

import (
	"errors"
	"sync"

	"qiita-editor/pkg/models"
)

const maxDialogs = 50

var ErrNoPanel = errors.New("no quick panel is open")

// BridgePresenter holds UI requests until a remote editor picks them up.
// Only one quick panel is pending at a time; a newer one cancels the older.
type BridgePresenter struct {
	mu      sync.Mutex
	entries []models.ListEntry
	onDone  func(int)
	dialogs []string
	status  string
}

func NewBridgePresenter() *BridgePresenter {
	return &BridgePresenter{}
}

func (p *BridgePresenter) ShowQuickPanel(entries []models.ListEntry, onDone func(index int)) {
	p.mu.Lock()
	previous := p.onDone
	p.entries = entries
	p.onDone = onDone
	p.mu.Unlock()

	if previous != nil {
		previous(-1)
	}
}

// Panel returns the entries of the pending panel.
func (p *BridgePresenter) Panel() ([]models.ListEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onDone == nil {
		return nil, false
	}
	return p.entries, true
}

// Resolve closes the pending panel with index, -1 meaning cancelled.
func (p *BridgePresenter) Resolve(index int) error {
	p.mu.Lock()
	onDone := p.onDone
	if onDone == nil {
		p.mu.Unlock()
		return ErrNoPanel
	}
	if index < -1 || index >= len(p.entries) {
		p.mu.Unlock()
		return errors.New("index out of range")
	}
	p.entries = nil
	p.onDone = nil
	p.mu.Unlock()

	onDone(index)
	return nil
}

func (p *BridgePresenter) MessageDialog(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogs = append(p.dialogs, msg)
	if len(p.dialogs) > maxDialogs {
		p.dialogs = p.dialogs[len(p.dialogs)-maxDialogs:]
	}
}

func (p *BridgePresenter) StatusMessage(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = msg
}

// Messages drains the recorded dialogs and returns the last status.
func (p *BridgePresenter) Messages() ([]string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dialogs := p.dialogs
	p.dialogs = nil
	return dialogs, p.status
}
