package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// CommandRunner runs an external program to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// DesktopSurface shows native OS notifications through the platform's
// notification helper: notify-send on Linux and BSD, osascript on macOS.
type DesktopSurface struct {
	mu       sync.Mutex
	goos     string
	lookPath func(string) (string, error)
	run      CommandRunner
}

// NewDesktopSurface returns a surface for the running OS.
func NewDesktopSurface() *DesktopSurface {
	return NewDesktopSurfaceFor(runtime.GOOS, exec.LookPath, runCommand)
}

// NewDesktopSurfaceFor returns a surface with an explicit OS and process hooks.
func NewDesktopSurfaceFor(goos string, lookPath func(string) (string, error), run CommandRunner) *DesktopSurface {
	return &DesktopSurface{goos: goos, lookPath: lookPath, run: run}
}

func (s *DesktopSurface) Name() string { return "desktop" }

// Show implements Surface.
func (s *DesktopSurface) Show(ctx context.Context, n Notification) error {
	name, args, ok := s.command(n)
	if !ok {
		return ErrUnavailable
	}
	path, err := s.lookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %s not found", ErrUnavailable, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The helper exits non-zero when the session refuses notifications
	// (no bus, do-not-disturb policy, revoked permission).
	if err := s.run(ctx, path, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return nil
}

func (s *DesktopSurface) command(n Notification) (string, []string, bool) {
	switch s.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		args := []string{}
		if n.Icon != "" {
			args = append(args, "--icon", n.Icon)
		}
		// Titles and bodies starting with '-' are not options.
		args = append(args, "--", n.Title, n.Body)
		return "notify-send", args, true
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(n.Body), appleScriptString(n.Title))
		return "osascript", []string{"-e", script}, true
	default:
		return "", nil, false
	}
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
