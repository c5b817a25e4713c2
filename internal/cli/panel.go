package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/x/term"

	"github.com/myastroboard/astroboard/pkg/ui"
)

// panel shows one call on the terminal: a spinner line while loading and
// a bordered box for errors and notices. On a non-terminal writer each
// loading state becomes a plain status line.
type panel struct {
	ctx     context.Context
	w       io.Writer
	title   string
	animate bool

	mu      sync.Mutex
	spinner *Spinner
}

var _ ui.Container = (*panel)(nil)

func (c *CLI) newPanel(ctx context.Context, title string) *panel {
	return &panel{ctx: ctx, w: c.err, title: title, animate: isTerminal(c.err)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func (p *panel) Loading(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.animate {
		printInfo(p.w, "%s", msg)
		return
	}
	if p.spinner == nil {
		p.spinner = newSpinner(p.ctx, p.w, msg)
		p.spinner.Start()
		return
	}
	p.spinner.SetMessage(msg)
}

func (p *panel) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
	fmt.Fprintln(p.w, box(styleErrorBox, iconError+" "+p.title, StyleError.Render(msg)))
}

func (p *panel) Notice(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
	fmt.Fprintln(p.w, box(styleNoticeBox, iconPending+" "+p.title, StyleWarning.Render(msg)))
}

func (p *panel) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
}

func (p *panel) stop() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}
