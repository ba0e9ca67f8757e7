// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"duewatch/internal/cache"
	"duewatch/internal/reminder"
)

const (
	// SectionSeparator is the separator line around section headers.
	SectionSeparator = "------------"

	// DueLayout is how due dates are printed.
	DueLayout = "2006-01-02 15:04"
)

// FormatReminder formats one reminder line.
// Format: "{URGENCY:<8}  {TITLE}  (due {DUE})\n"
func FormatReminder(w io.Writer, r reminder.Reminder) {
	title := normalizeTitle(r.Task.Title)
	due := ""
	if r.Task.HasDue() {
		due = "  (due " + r.Task.Due.Format(DueLayout) + ")"
	}
	fmt.Fprintf(w, "%-8s  %s%s\n", r.Urgency, title, due)
}

// FormatSectionHeader formats a section header.
func FormatSectionHeader(w io.Writer, title string) {
	fmt.Fprintln(w, SectionSeparator)
	fmt.Fprintln(w, normalizeTitle(title))
	fmt.Fprintln(w, SectionSeparator)
}

// FormatCacheEntry formats a cached asset.
// Format: "    {STATUS}  {BYTES:>8}  {URL}\n"
func FormatCacheEntry(w io.Writer, e cache.Entry) {
	fmt.Fprintf(w, "    %3d  %8d  %s\n", e.Status, len(e.Body), e.URL)
}

// FormatDropped formats a bucket removed at activation.
func FormatDropped(w io.Writer, name string) {
	fmt.Fprintf(w, "dropped %s\n", name)
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
