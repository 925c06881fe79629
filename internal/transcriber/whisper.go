package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// whisperLocal runs the whisper.cpp CLI against a local model.
type whisperLocal struct {
	binaryPath string
	modelPath  string
	language   string
}

func newWhisper(rt *Runtime, language string) (*whisperLocal, error) {
	if rt == nil {
		return nil, fmt.Errorf("whisper runtime not configured")
	}
	binaryPath := rt.WhisperBinaryPath()
	if binaryPath == "" {
		return nil, fmt.Errorf("whisper-cli binary not found in %s or PATH", filepath.Join(rt.dataDir, "bin"))
	}
	modelPath := rt.ModelPath()
	if modelPath == "" {
		return nil, fmt.Errorf("whisper model %q not found under %s", rt.model, filepath.Join(rt.dataDir, "models"))
	}
	if language == "" {
		language = "en"
	}
	return &whisperLocal{binaryPath: binaryPath, modelPath: modelPath, language: language}, nil
}

func (w *whisperLocal) Name() string {
	return "whisper"
}

func (w *whisperLocal) Transcribe(ctx context.Context, filePath string) (string, error) {
	outDir, err := os.MkdirTemp("", "whisper-out-*")
	if err != nil {
		return "", fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outBase := filepath.Join(outDir, "transcript")
	args := []string{
		"-m", w.modelPath,
		"-f", filePath,
		"-l", w.language,
		"--output-txt",
		"--output-file", outBase,
		"--no-prints",
	}

	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("whisper-cli failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("whisper produced an empty transcript")
	}
	return text, nil
}
