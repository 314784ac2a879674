package out

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	sessionout "mobtime/internal/modules/session/port/out"
)

// OSSoundPlayer plays an audio file through the first available system
// player.
type OSSoundPlayer struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func NewOSSoundPlayer() sessionout.SoundPlayer {
	return &OSSoundPlayer{goos: runtime.GOOS, lookPath: exec.LookPath, run: startDetached}
}

func (p *OSSoundPlayer) Play(ctx context.Context, asset string) error {
	if _, err := os.Stat(asset); err != nil {
		return fmt.Errorf("sound asset: %w", err)
	}
	name, err := p.player()
	if err != nil {
		return err
	}
	if err := p.run(ctx, name, asset); err != nil {
		return fmt.Errorf("play sound: %w", err)
	}
	return nil
}

func (p *OSSoundPlayer) player() (string, error) {
	var candidates []string
	switch p.goos {
	case "darwin":
		candidates = []string{"afplay"}
	case "linux":
		candidates = []string{"paplay", "aplay"}
	default:
		return "", fmt.Errorf("sound is not supported on %s", p.goos)
	}
	for _, name := range candidates {
		if path, err := p.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no sound player found (tried %v)", candidates)
}

// startDetached launches the command without waiting for it so a slow
// player never holds up the caller.
func startDetached(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
