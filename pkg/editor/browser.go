package editor

import (
	"fmt"
	"os/exec"
	"runtime"
)

// SystemBrowser opens URLs with the platform's default handler.
type SystemBrowser struct{}

func (SystemBrowser) OpenNewTab(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("open %s: %w: %s", url, err, out)
	}
	return nil
}
