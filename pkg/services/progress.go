package services

import (
	"fmt"
	"strings"
	"time"
)

const (
	progressWidth    = 8
	progressInterval = 100 * time.Millisecond
)

// StatusSink receives status-bar text.
type StatusSink interface {
	StatusMessage(msg string)
}

// TrackProgress animates message in the status bar while task runs, then
// shows success or the failure. It returns when the task is done.
func TrackProgress(task *Task, sink StatusSink, message, success string) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	i, step := 0, 1
	for {
		sink.StatusMessage(fmt.Sprintf("%s [%s=%s]", message,
			strings.Repeat(" ", i), strings.Repeat(" ", progressWidth-1-i)))

		select {
		case <-task.Done():
			if err := task.Err(); err != nil {
				sink.StatusMessage(fmt.Sprintf("%s: failed (%v)", message, err))
				return
			}
			sink.StatusMessage(success)
			return
		case <-ticker.C:
		}

		if i == 0 {
			step = 1
		} else if i == progressWidth-1 {
			step = -1
		}
		i += step
	}
}
