package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"liquidityBreakdown/internal/model"
)

// FileExporter writes each tree as an indented JSON file under a directory.
type FileExporter struct {
	dir string
}

func NewFileExporter(dir string) *FileExporter {
	if dir == "" {
		dir = "."
	}
	return &FileExporter{dir: dir}
}

// FileName returns the artifact name for a tree.
func FileName(tree *model.AttributionTree) string {
	return fmt.Sprintf("user-breakdown-%d-%s-%d.json", tree.ChainID, tree.InputTokenAddress.Hex(), tree.GeneratedAt.UnixMilli())
}

// Export writes the artifact through a temporary file and renames it into place.
func (e *FileExporter) Export(ctx context.Context, tree *model.AttributionTree) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(NewArtifact(tree), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal breakdown: %w", err)
	}

	path := filepath.Join(e.dir, FileName(tree))
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write breakdown tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("rename breakdown: %w", err)
	}
	return path, nil
}

// ReadFile loads an artifact written by FileExporter.
func ReadFile(path string) (*model.AttributionTree, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat breakdown: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("breakdown path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read breakdown: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse breakdown: %w", err)
	}
	return artifact.Tree()
}
