package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/loom/internal/ui/output"
	"go.trai.ch/loom/internal/ui/style"
)

// renderer writes human readable results with the brand styles, honouring
// NO_COLOR.
type renderer struct {
	w       io.Writer
	heading lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	caution lipgloss.Style
}

func newRenderer(w io.Writer) *renderer {
	r := lipgloss.NewRenderer(w, termenv.WithProfile(output.ColorProfile()))
	return &renderer{
		w:       w,
		heading: style.Heading.Renderer(r),
		muted:   style.Muted.Renderer(r),
		success: style.Success.Renderer(r),
		failure: style.Failure.Renderer(r),
		caution: style.Caution.Renderer(r),
	}
}

func (r *renderer) section(title string) {
	_, _ = fmt.Fprintln(r.w, r.heading.Render(title))
}

func (r *renderer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, "  "+format+"\n", args...)
}

func (r *renderer) field(name, value string) {
	r.line("%s %s", r.muted.Render(fmt.Sprintf("%-15s", name+":")), value)
}

func (r *renderer) empty() {
	r.line("%s", r.muted.Render("(none)"))
}

func (r *renderer) list(items []string) {
	if len(items) == 0 {
		r.empty()
		return
	}
	for _, item := range items {
		r.line("%s", item)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
