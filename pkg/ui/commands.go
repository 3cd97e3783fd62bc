package ui

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/arbor/pkg/lazy"
)

// FetchDoneMsg is returned when a child fetch started by a toggle finishes
type FetchDoneMsg struct {
	Result lazy.Result
}

// ClipboardMsg is returned after copying a node ID
type ClipboardMsg struct {
	Text string
	Err  error
}

// fetchCmd runs f off the update loop and reports back with FetchDoneMsg.
// A zero timeout waits as long as the source takes.
func fetchCmd(f *lazy.Fetch, timeout time.Duration) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = FetchDoneMsg{Result: lazy.Result{
					NodeID: f.NodeID,
					Err:    fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
				}}
			}
		}()

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return FetchDoneMsg{Result: f.Run(ctx)}
	}
}

// copyCmd writes text to the system clipboard asynchronously
func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return ClipboardMsg{Text: text, Err: clipboard.WriteAll(text)}
	}
}
