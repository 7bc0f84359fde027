package txt2img

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"prompt-matrix/internal/models"
)

// ErrNoDirectory is returned when no Stable Diffusion directory is configured
var ErrNoDirectory = errors.New("stable diffusion directory is not configured")

// ExecGenerator runs txt2img.py inside the Stable Diffusion
// checkout and reports the newest image in OutputDir.
type ExecGenerator struct {
	PythonPath string
	Dir        string
	OutputDir  string
}

// NewExecGenerator creates a generator rooted at dir
func NewExecGenerator(pythonPath, dir, outputDir string) *ExecGenerator {
	return &ExecGenerator{PythonPath: pythonPath, Dir: dir, OutputDir: outputDir}
}

// Generate runs one job to completion. ctx cancellation kills the process.
// The prompt is passed as a single argument and never reaches a shell.
func (g *ExecGenerator) Generate(ctx context.Context, p models.Parameters) (string, error) {
	if g.Dir == "" {
		return "", ErrNoDirectory
	}

	argv := Argv(g.Dir, g.PythonPath, p)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = g.Dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("txt2img failed: %w: %s", err, tail(out, 512))
	}

	if g.OutputDir == "" {
		return "", nil
	}
	name, err := LatestImage(g.OutputDir)
	if err != nil {
		return "", fmt.Errorf("failed to find output image: %w", err)
	}
	return name, nil
}

// Argv builds the process arguments for p. A venv in dir supplies the
// interpreter, a direnv directory runs it through direnv exec.
func Argv(dir, pythonPath string, p models.Parameters) []string {
	args := append([]string{Script}, Args(p)...)

	switch {
	case exists(filepath.Join(dir, "venv", "bin", "activate")):
		return append([]string{filepath.Join(dir, "venv", "bin", "python")}, args...)
	case exists(filepath.Join(dir, ".direnv")):
		return append([]string{"direnv", "exec", dir, pythonPath}, args...)
	default:
		return append([]string{pythonPath}, args...)
	}
}

// LatestImage returns the file name of the most recently modified .png in
// dir, or "" when there is none.
func LatestImage(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latest string
	var latestAt time.Time
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestAt) {
			latest, latestAt = e.Name(), info.ModTime()
		}
	}
	return latest, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
