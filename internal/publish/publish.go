package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"mimi-cli/internal/model"
)

type WriteOptions struct {
	Overwrite     bool
	IncludeFields []string
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteProject renders one project to <toDir>/projects/<id>.md.
func WriteProject(projectID string, p *model.Project, ps model.ProjectState, toDir string, opt WriteOptions) (WriteResult, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return WriteResult{}, errors.New("missing projectID")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	md := RenderProjectMarkdown(projectID, p, ps, RenderOptions{IncludeFields: opt.IncludeFields})

	outDir := filepath.Join(toDir, "projects")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(outDir, safeName(projectID)+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

// safeName keeps project ids usable as file names.
func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, id)
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
