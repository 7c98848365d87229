// Package browser opens a URL in the user's default browser via the
// platform opener. The URL is always passed as a single argv element — no
// shell is involved, so quotes and metacharacters in place names cannot be
// interpreted.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// Launcher implements ports.URLOpener with an argument-vector exec.
type Launcher struct {
	goos string
}

// NewLauncher creates a launcher for the current platform.
func NewLauncher() *Launcher {
	return &Launcher{goos: runtime.GOOS}
}

// Open hands the URL to the OS opener and waits for the command to finish.
func (l *Launcher) Open(ctx context.Context, url string) error {
	name, args := openerCommand(l.goos, url)
	slog.Info("launching browser", "command", name, "url", url)

	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w (%s)", name, err, out)
	}
	return nil
}

// openerCommand picks the per-platform opener. On Windows the empty string
// after start is the window title; without it start would treat the URL as
// the title.
func openerCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", "", url}
	default:
		return "xdg-open", []string{url}
	}
}
