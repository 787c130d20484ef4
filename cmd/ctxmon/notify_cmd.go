package main

import (
	"context"
	"fmt"
	"os"

	"github.com/asheshgoplani/ctxmon/internal/config"
	"github.com/asheshgoplani/ctxmon/internal/logging"
	"github.com/asheshgoplani/ctxmon/internal/notify"
	"github.com/asheshgoplani/ctxmon/internal/platform"
)

// runNotify sends a single notification. Exit 0 means a best-effort
// attempt was made, regardless of delivery; only malformed arguments fail.
func runNotify(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: ctxmon notify <title> <message>")
		return 1
	}
	title, message := args[0], args[1]
	if title == "" || message == "" {
		fmt.Fprintln(os.Stderr, "Usage: ctxmon notify <title> <message>")
		return 1
	}

	cfg, _ := config.Resolve("")
	logging.Init(logging.Config{Enabled: cfg.LogEnabled, FilePath: cfg.LogFile})
	defer logging.Shutdown()

	delivered := notify.New().Send(context.Background(), title, message)
	if delivered {
		fmt.Printf("Notification sent on %s\n", platform.Detect())
	} else {
		fmt.Fprintf(os.Stderr, "Notification not delivered on %s (see log)\n", platform.Detect())
	}
	return 0
}
