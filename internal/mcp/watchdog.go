package mcp

import (
	"context"
	"os"
	"time"

	"wayfarer/internal/logging"
)

// WatchParent polls for parent process death in a background goroutine.
// When the parent PID changes (the MCP client disconnected or restarted
// its host), cancel fires so the serve loop exits instead of lingering
// as a zombie behind a dead editor.
//
// The watchdog must NOT read stdin: the SDK's stdio transport owns it
// exclusively, and stealing bytes here would corrupt the JSON-RPC
// stream.
//
// The goroutine exits when ctx is cancelled or parent death is detected.
func WatchParent(ctx context.Context, cancel context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					logging.New("mcp").Warn("parent process died, shutting down", "was_pid", ppid)
					cancel()
					return
				}
			}
		}
	}()
}
