package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"qiita-editor/pkg/editor"
)

// Bridge exposes the dispatcher to editor extensions over HTTP. Views are
// files in the workspace, addressed by their relative path.
type Bridge struct {
	dispatcher *Dispatcher
	workspace  *editor.Workspace
	presenter  *editor.BridgePresenter
}

func NewBridge(d *Dispatcher, ws *editor.Workspace, p *editor.BridgePresenter) *Bridge {
	return &Bridge{dispatcher: d, workspace: ws, presenter: p}
}

// Register mounts the bridge routes under /api.
func (b *Bridge) Register(r gin.IRouter, secret string) {
	api := r.Group("/api")
	api.Use(BridgeRequired(secret))
	{
		api.GET("/commands", b.ListCommands)
		api.POST("/commands/:name", b.RunCommand)
		api.GET("/tasks/:id", b.GetTask)
		api.GET("/panel", b.GetPanel)
		api.POST("/panel", b.ResolvePanel)
		api.GET("/messages", b.GetMessages)
	}
}

func (b *Bridge) ListCommands(c *gin.Context) {
	w, err := b.workspace.Window(c.Query("path"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": w.ActivePath(), "commands": b.dispatcher.Enabled(w)})
}

func (b *Bridge) RunCommand(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
		Args
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
	}

	w, err := b.workspace.Window(req.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	task, err := b.dispatcher.Run(c.Param("name"), w, req.Args)
	switch {
	case errors.Is(err, ErrUnknownCommand):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrCommandDisabled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": task.ID, "command": task.Name})
}

func (b *Bridge) GetTask(c *gin.Context) {
	task, ok := b.dispatcher.Task(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	select {
	case <-task.Done():
		if err := task.Err(); err != nil {
			c.JSON(http.StatusOK, gin.H{"id": task.ID, "command": task.Name, "state": "failed", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": task.ID, "command": task.Name, "state": "done"})
	default:
		c.JSON(http.StatusOK, gin.H{"id": task.ID, "command": task.Name, "state": "running"})
	}
}

func (b *Bridge) GetPanel(c *gin.Context) {
	entries, ok := b.presenter.Panel()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": editor.ErrNoPanel.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (b *Bridge) ResolvePanel(c *gin.Context) {
	var req struct {
		Index *int `json:"index" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := b.presenter.Resolve(*req.Index); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, editor.ErrNoPanel) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}

func (b *Bridge) GetMessages(c *gin.Context) {
	dialogs, status := b.presenter.Messages()
	if dialogs == nil {
		dialogs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"dialogs": dialogs, "status": status})
}
