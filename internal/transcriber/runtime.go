package transcriber

import (
	"os"
	"os/exec"
	"path/filepath"
)

const whisperBinaryName = "whisper-cli"

// Runtime locates the local whisper.cpp installation: the whisper-cli
// binary (data dir bin/ first, then PATH) and the model file under
// models/.
type Runtime struct {
	dataDir string
	model   string
}

func NewRuntime(dataDir, model string) *Runtime {
	return &Runtime{dataDir: dataDir, model: model}
}

// WhisperBinaryPath returns the path to whisper-cli, or "" when it is not
// installed.
func (r *Runtime) WhisperBinaryPath() string {
	local := filepath.Join(r.dataDir, "bin", whisperBinaryName)
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local
	}
	if path, err := exec.LookPath(whisperBinaryName); err == nil {
		return path
	}
	return ""
}

// ModelPath returns the path to the configured ggml model file, or ""
// when it is missing.
func (r *Runtime) ModelPath() string {
	if r.model == "" {
		return ""
	}
	path := filepath.Join(r.dataDir, "models", r.model)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// WhisperInstalled reports whether both binary and model are present.
func (r *Runtime) WhisperInstalled() bool {
	return r.WhisperBinaryPath() != "" && r.ModelPath() != ""
}
