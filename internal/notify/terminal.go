package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	alertBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)

	alertTitle = lipgloss.NewStyle().Bold(true)
)

// TerminalSurface is the fallback alert: it rings the bell and prints a boxed
// message to a terminal. It is always available.
type TerminalSurface struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalSurface returns a surface writing to out.
func NewTerminalSurface(out io.Writer) *TerminalSurface {
	return &TerminalSurface{out: out}
}

func (s *TerminalSurface) Name() string { return "terminal" }

// Show implements Surface.
func (s *TerminalSurface) Show(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content := n.Body
	if n.Title != "" {
		content = alertTitle.Render(n.Title) + "\n" + n.Body
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "\a%s\n", alertBox.Render(content))
	return err
}
