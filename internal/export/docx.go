package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// docxToHTML converts a DOCX to an HTML fragment using pandoc. pandoc cannot
// read zip formats from stdin, so the document goes through a temp file.
func docxToHTML(ctx context.Context, data []byte) (string, error) {
	if _, err := exec.LookPath("pandoc"); err != nil {
		return "", fmt.Errorf("%w: pandoc not installed", ErrPDFDependencyMissing)
	}

	tmp, err := os.CreateTemp("", "proposal-*.docx")
	if err != nil {
		return "", fmt.Errorf("create temp docx: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write temp docx: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp docx: %w", err)
	}

	cmd := exec.CommandContext(ctx, "pandoc",
		"-f", "docx",
		"-t", "html",
		tmp.Name(),
	)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("pandoc failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("pandoc execution failed: %w", err)
	}
	return string(output), nil
}
