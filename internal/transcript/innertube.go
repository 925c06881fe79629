package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tubepost/internal/botcheck"
)

// The ANDROID Innertube client gets caption URLs that work without the
// web player's signature dance. Tracks that still demand a proof-of-origin
// token are marked with exp=xpe in their URL and cannot be fetched here.
const (
	innertubeURL          = "https://www.youtube.com/youtubei/v1/player"
	androidClientName     = "ANDROID"
	androidClientNameID   = "3"
	androidClientVersion  = "20.10.38"
	androidSDKVersion     = 30
	androidUserAgent      = "com.google.android.youtube/20.10.38 (Linux; U; Android 11) gzip"
	poTokenGatedURLMarker = "&exp=xpe"
)

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName        string `json:"clientName"`
			ClientVersion     string `json:"clientVersion"`
			AndroidSDKVersion int    `json:"androidSdkVersion"`
			HL                string `json:"hl"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

func (p *playerResponse) captionTracks() []captionTrack {
	return p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

func (f *Fetcher) callPlayer(ctx context.Context, videoID string) (*playerResponse, error) {
	var reqBody playerRequest
	reqBody.Context.Client.ClientName = androidClientName
	reqBody.Context.Client.ClientVersion = androidClientVersion
	reqBody.Context.Client.AndroidSDKVersion = androidSDKVersion
	reqBody.Context.Client.HL = "en"
	reqBody.VideoID = videoID

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, innertubeURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)
	req.Header.Set("X-YouTube-Client-Name", androidClientNameID)
	req.Header.Set("X-YouTube-Client-Version", androidClientVersion)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("innertube player returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}

	var player playerResponse
	if err := json.Unmarshal(body, &player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	if s := player.PlayabilityStatus.Status; s == "LOGIN_REQUIRED" || s == "UNPLAYABLE" {
		return nil, classifyPlayability(s, player.PlayabilityStatus.Reason, videoID)
	}
	return &player, nil
}

// classifyPlayability separates a bot challenge from a genuinely
// unplayable video. Catching the challenge here spares the pipeline a
// doomed download attempt.
func classifyPlayability(status, reason, videoID string) error {
	if botcheck.IsChallenge(reason) {
		return &botcheck.BotDetectionError{
			URL:    "https://www.youtube.com/watch?v=" + videoID,
			Output: reason,
		}
	}
	return fmt.Errorf("video not playable (%s): %s: %w", status, reason, ErrNoTranscript)
}

// pickTrack chooses the best usable caption track: manual tracks over
// auto-generated, preferred languages over the rest, and never a
// token-gated track.
func pickTrack(tracks []captionTrack, langs []string) *captionTrack {
	usable := tracks[:0:0]
	for _, t := range tracks {
		if t.BaseURL == "" || strings.Contains(t.BaseURL, poTokenGatedURLMarker) {
			continue
		}
		usable = append(usable, t)
	}
	if len(usable) == 0 {
		return nil
	}

	best := -1
	bestScore := -1
	for i, t := range usable {
		score := 0
		if t.Kind != "asr" {
			score += 100
		}
		for rank, lang := range langs {
			if strings.EqualFold(t.LanguageCode, lang) {
				score += 50 - rank
				break
			}
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return &usable[best]
}
