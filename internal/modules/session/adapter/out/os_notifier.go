package out

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	sessionout "mobtime/internal/modules/session/port/out"
)

const notificationTitle = "mobtime"

type OSNotifier struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func NewOSNotifier() sessionout.Notifier {
	return &OSNotifier{goos: runtime.GOOS, lookPath: exec.LookPath, run: startDetached}
}

func (n *OSNotifier) Notify(ctx context.Context, message string) error {
	var (
		name string
		args []string
	)
	switch n.goos {
	case "darwin":
		name = "osascript"
		args = []string{"-e", fmt.Sprintf("display notification %s with title %s", strconv.Quote(message), strconv.Quote(notificationTitle))}
	case "linux":
		name = "notify-send"
		args = []string{notificationTitle, message}
	default:
		return fmt.Errorf("notifications are not supported on %s", n.goos)
	}
	path, err := n.lookPath(name)
	if err != nil {
		return fmt.Errorf("find %s: %w", name, err)
	}
	if err := n.run(ctx, path, args...); err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	return nil
}
