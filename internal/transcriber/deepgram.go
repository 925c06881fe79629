package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const deepgramBaseURL = "https://api.deepgram.com/v1/listen"

// deepgram posts the audio bytes in a single request; no job polling.
type deepgram struct {
	apiKey   string
	baseURL  string
	language string
	client   *http.Client
}

func newDeepgram(apiKey, language string) *deepgram {
	if language == "" {
		language = "en"
	}
	return &deepgram{
		apiKey:   apiKey,
		baseURL:  deepgramBaseURL,
		language: language,
		client:   &http.Client{Timeout: 10 * time.Minute},
	}
}

func (d *deepgram) Name() string {
	return "deepgram"
}

func (d *deepgram) Transcribe(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	params := url.Values{}
	params.Set("punctuate", "true")
	params.Set("language", d.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"?"+params.Encode(), f)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "audio/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepgram returned %s: %s", resp.Status, tailString(string(body), 300))
	}

	var out struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode deepgram response: %w", err)
	}
	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return "", fmt.Errorf("deepgram response has no transcript")
	}
	return out.Results.Channels[0].Alternatives[0].Transcript, nil
}
