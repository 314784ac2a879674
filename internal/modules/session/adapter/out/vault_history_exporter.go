package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mobtime/internal/modules/session/domain"
	sessionout "mobtime/internal/modules/session/port/out"
	"mobtime/internal/platform/markdown"
	"mobtime/internal/platform/slug"
)

var rotationsBlock = markdown.Block{Owner: "mobtime", Name: "rotations"}

// VaultHistoryExporter writes rotation history into a markdown note. Text
// outside the managed block survives re-exports.
type VaultHistoryExporter struct {
	title string
	now   func() time.Time
}

func NewVaultHistoryExporter(title string, now func() time.Time) sessionout.HistoryExporter {
	if strings.TrimSpace(title) == "" {
		title = "Mob rotations"
	}
	if now == nil {
		now = time.Now
	}
	return &VaultHistoryExporter{title: title, now: now}
}

func (e *VaultHistoryExporter) Export(_ context.Context, dir string, records []domain.RotationRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, slug.Make(e.title)+".md")

	note := markdown.Note{Meta: map[string]any{}, Body: fmt.Sprintf("# %s\n", e.title)}
	if existing, err := os.ReadFile(path); err == nil {
		if note, err = markdown.Parse(string(existing)); err != nil {
			return "", fmt.Errorf("parse existing export: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read existing export: %w", err)
	}

	note.Meta["schema_version"] = domain.SchemaVersion
	note.Meta["title"] = e.title
	note.Meta["exported_at"] = e.now().UTC().Format(time.RFC3339)
	note.Meta["rotations"] = len(records)

	note.Body = rotationsBlock.Replace(note.Body, renderRotations(records))
	rendered, err := note.Render()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func renderRotations(records []domain.RotationRecord) string {
	if len(records) == 0 {
		return "_No rotations yet._"
	}
	lines := []string{
		"| Rotated at | Driver | Next | Elapsed |",
		"| --- | --- | --- | --- |",
	}
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s |",
			r.RotatedAt.UTC().Format("2006-01-02 15:04:05"),
			orDash(r.Previous),
			orDash(r.Next),
			domain.FormatSeconds(r.ElapsedSeconds, domain.LayoutHMS),
		))
	}
	return strings.Join(lines, "\n")
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
