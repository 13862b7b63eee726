package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/forPelevin/cleancut/internal/types"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

const requestTimeout = 2 * time.Minute

const defaultBaseURL = "https://api.deepgram.com"

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "nova-2"
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

// listenResponse mirrors the subset of Deepgram's prerecorded response the
// pipeline consumes.
type listenResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
				Words      []struct {
					Word       string  `json:"word"`
					Start      float64 `json:"start"`
					End        float64 `json:"end"`
					Confidence float64 `json:"confidence"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (types.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	q := url.Values{}
	q.Set("model", a.model)
	q.Set("smart_format", "true")
	q.Set("filler_words", "true")
	endpoint := a.baseURL + "/v1/listen?" + q.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", endpoint, f)
	if err != nil {
		return types.Transcript{}, err
	}
	req.Header.Set("Authorization", "Token "+a.key)
	req.Header.Set("Content-Type", contentType(audioPath))

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return types.Transcript{}, fmt.Errorf("deepgram timeout after %s", requestTimeout)
		}
		return types.Transcript{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return types.Transcript{}, fmt.Errorf("deepgram status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return types.Transcript{}, fmt.Errorf("deepgram status %d: %s", resp.StatusCode, truncate(redactKey(string(rb), a.key), 400))
	}

	var raw listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return types.Transcript{}, fmt.Errorf("decode deepgram response: %w", err)
	}
	return toTranscript(raw)
}

func toTranscript(raw listenResponse) (types.Transcript, error) {
	if len(raw.Results.Channels) == 0 || len(raw.Results.Channels[0].Alternatives) == 0 {
		return types.Transcript{}, errors.New("deepgram: no transcription alternatives in response")
	}
	alt := raw.Results.Channels[0].Alternatives[0]

	tr := types.Transcript{
		Duration: dur(raw.Metadata.Duration),
		Text:     strings.TrimSpace(alt.Transcript),
		Words:    make([]types.Word, 0, len(alt.Words)),
	}
	var prevEnd time.Duration
	for _, w := range alt.Words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		ws := dur(w.Start)
		we := dur(w.End)
		if we <= ws {
			continue
		}
		// Word timings never overlap; clamp rather than drop when the
		// service reports a start slightly inside the previous word.
		if ws < prevEnd {
			ws = prevEnd
			if we <= ws {
				continue
			}
		}
		prevEnd = we
		tr.Words = append(tr.Words, types.Word{
			Text:       text,
			Start:      ws,
			End:        we,
			Confidence: w.Confidence,
			Filler:     isFiller(text),
		})
	}
	if tr.Duration <= 0 && len(tr.Words) > 0 {
		tr.Duration = tr.Words[len(tr.Words)-1].End
	}
	return tr, nil
}

// fillerTokens covers the disfluencies Deepgram surfaces as ordinary words
// when filler_words is enabled.
var fillerTokens = map[string]struct{}{
	"um": {}, "uh": {}, "uhh": {}, "umm": {}, "hmm": {}, "mhmm": {},
	"mm-mm": {}, "uh-uh": {}, "uh-huh": {}, "nuh-uh": {}, "eh": {}, "ah": {},
}

func isFiller(word string) bool {
	w := strings.ToLower(strings.Trim(word, ".,!?"))
	_, ok := fillerTokens[w]
	return ok
}

func contentType(path string) string {
	switch strings.ToLower(strings.TrimPrefix(ext(path), ".")) {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "m4a", "aac":
		return "audio/aac"
	case "mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

func ext(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}

func dur(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "[REDACTED]")
}
