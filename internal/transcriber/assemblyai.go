package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const assemblyAIBaseURL = "https://api.assemblyai.com/v2"

// assemblyAI implements the upload / create / poll flow. Transient 429
// and 5xx responses are retried by the HTTP client; polling continues
// until the job finishes or the context ends.
type assemblyAI struct {
	apiKey       string
	baseURL      string
	client       *retryablehttp.Client
	pollInterval time.Duration
	log          zerolog.Logger
}

func newAssemblyAI(apiKey string, log zerolog.Logger) *assemblyAI {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.Logger = nil
	return &assemblyAI{
		apiKey:       apiKey,
		baseURL:      assemblyAIBaseURL,
		client:       client,
		pollInterval: 3 * time.Second,
		log:          log,
	}
}

func (a *assemblyAI) Name() string {
	return "assemblyai"
}

func (a *assemblyAI) Transcribe(ctx context.Context, filePath string) (string, error) {
	uploadURL, err := a.upload(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("assemblyai upload: %w", err)
	}

	jobID, err := a.createJob(ctx, uploadURL)
	if err != nil {
		return "", fmt.Errorf("assemblyai create transcript: %w", err)
	}
	a.log.Debug().Str("job_id", jobID).Msg("assemblyai transcript queued")

	return a.poll(ctx, jobID)
}

func (a *assemblyAI) upload(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/upload", f)
	if err != nil {
		return "", err
	}
	req.Header.Set("authorization", a.apiKey)
	req.Header.Set("content-type", "application/octet-stream")

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := a.do(req, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload response missing upload_url")
	}
	return out.UploadURL, nil
}

func (a *assemblyAI) createJob(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("authorization", a.apiKey)
	req.Header.Set("content-type", "application/json")

	var out struct {
		ID string `json:"id"`
	}
	if err := a.do(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("create response missing id")
	}
	return out.ID, nil
}

func (a *assemblyAI) poll(ctx context.Context, jobID string) (string, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/transcript/"+jobID, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("authorization", a.apiKey)

		var out struct {
			Status string `json:"status"`
			Text   string `json:"text"`
			Error  string `json:"error"`
		}
		if err := a.do(req, &out); err != nil {
			return "", fmt.Errorf("assemblyai poll: %w", err)
		}

		switch out.Status {
		case "completed":
			return out.Text, nil
		case "error":
			return "", fmt.Errorf("assemblyai transcription failed: %s", out.Error)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *assemblyAI) do(req *retryablehttp.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("assemblyai returned %s: %s", resp.Status, tailString(string(body), 300))
	}
	return json.Unmarshal(body, out)
}

func tailString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
