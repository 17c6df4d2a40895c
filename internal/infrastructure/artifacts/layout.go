package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
)

var _ output.MetadataPort = (*Layout)(nil)

const workflowMetadataFile = "workflow_metadata.json"

// Layout maps (app, task, step) to stable file paths under Root:
//
//	{Root}/screenshots/{app}/{task}/step_03.png
//	{Root}/screenshots/{app}/{task}/step_03_metadata.json
//	{Root}/screenshots/{app}/{task}/workflow_metadata.json
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	if root == "" {
		root = "data"
	}
	return Layout{Root: root}
}

func (l Layout) TaskDir(app, task string) string {
	return filepath.Join(l.Root, "screenshots", Slug(app, "app"), Slug(task, "task"))
}

func (l Layout) ScreenshotPath(app, task string, step int) string {
	return filepath.Join(l.TaskDir(app, task), fmt.Sprintf("step_%02d.png", step))
}

func (l Layout) ScreenshotMetadataPath(app, task string, step int) string {
	return filepath.Join(l.TaskDir(app, task), fmt.Sprintf("step_%02d_metadata.json", step))
}

func (l Layout) WorkflowMetadataPath(app, task string) string {
	return filepath.Join(l.TaskDir(app, task), workflowMetadataFile)
}

func (l Layout) WriteWorkflowMetadata(app, task string, meta entity.WorkflowMetadata) (string, error) {
	path := l.WorkflowMetadataPath(app, task)
	if err := WriteJSON(path, meta); err != nil {
		return "", err
	}
	return path, nil
}

// WriteJSON writes v as indented JSON, replacing path atomically.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Slug lowercases s and keeps only [a-z0-9_-], collapsing the rest to '_'.
func Slug(s, fallback string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return fallback
	}
	if len(out) > 80 {
		out = out[:80]
	}
	return out
}
