package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/forPelevin/cleancut/internal/types"
)

type Adapter struct {
	key       string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

const (
	requestTimeout = 90 * time.Second
	apiVersion     = "2023-06-01"
)

func New(apiKey, model, baseURL string, maxTokens int) *Adapter {
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{
		key:       apiKey,
		model:     model,
		baseURL:   baseURL,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 5 * time.Minute},
	}
}

const systemPrompt = `You are an expert video editor. You receive a word-level transcript as a JSON array of objects with a word, its start time, and end time in seconds, plus an is_filler flag. Identify the spans that should be removed from the recording.

Editing guidelines:
1. Cut every filler word ('um', 'uh', 'ah' and similar disfluencies).
2. Cut false starts: abandoned utterances the speaker restarts.
3. Cut repeated sentences, keeping the latter instance if it sounds more polished.
4. Cut extended silences longer than 1 second between words or sentences, and any pause over 500ms that is not a natural break point.
5. Never cut a sentence off mid-thought; kept speech must read as complete sentences.
6. Leave a 50-100ms buffer after sentence endings for natural pacing.
7. Return JSON and only JSON.

Output format:
{
    "edited_transcript": "hello this is a test video",
    "cuts": [
        {"reason": "filler", "start_sec": 0.24, "end_sec": 0.61}
    ]
}

Valid reasons: "filler", "false_start", "repetition", "silence". Times may
alternatively reference word indices with "start_word"/"end_word" (inclusive).`

// SuggestCuts asks the model which transcript spans to remove. The response
// is untrusted: anything that cannot be parsed into cut decisions comes back
// as types.ErrUnusableEdit so the caller can fall back to keeping everything.
func (a *Adapter) SuggestCuts(ctx context.Context, tr types.Transcript) (types.EditScript, error) {
	type promptWord struct {
		Word     string  `json:"word"`
		Start    float64 `json:"start"`
		End      float64 `json:"end"`
		IsFiller bool    `json:"is_filler"`
	}
	words := make([]promptWord, 0, len(tr.Words))
	for _, w := range tr.Words {
		words = append(words, promptWord{
			Word:     w.Text,
			Start:    w.Start.Seconds(),
			End:      w.End.Seconds(),
			IsFiller: w.Filler,
		})
	}
	wb, err := json.Marshal(words)
	if err != nil {
		return types.EditScript{}, fmt.Errorf("marshal transcript: %w", err)
	}

	payload := map[string]any{
		"model":      a.model,
		"max_tokens": a.maxTokens,
		"system":     systemPrompt,
		"messages": []map[string]any{
			{"role": "user", "content": string(wb)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return types.EditScript{}, fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return types.EditScript{}, err
	}
	req.Header.Set("x-api-key", a.key)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return types.EditScript{}, fmt.Errorf("anthropic timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return types.EditScript{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return types.EditScript{}, fmt.Errorf("anthropic status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return types.EditScript{}, fmt.Errorf("anthropic status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return types.EditScript{}, fmt.Errorf("%w: decode response: %v", types.ErrUnusableEdit, err)
	}

	var text strings.Builder
	for _, c := range raw.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	return ParseEditScript(text.String(), tr)
}

// ParseEditScript extracts the cut list from the model's free-form reply.
// Every structural failure maps to types.ErrUnusableEdit; individually
// unresolvable cuts are skipped, the rest survive.
func ParseEditScript(content string, tr types.Transcript) (types.EditScript, error) {
	clean, err := extractJSONObject(content)
	if err != nil {
		return types.EditScript{}, fmt.Errorf("%w: %v", types.ErrUnusableEdit, err)
	}

	var out struct {
		EditedTranscript string `json:"edited_transcript"`
		Cuts             []struct {
			Reason    string   `json:"reason"`
			StartSec  *float64 `json:"start_sec"`
			EndSec    *float64 `json:"end_sec"`
			StartWord *int     `json:"start_word"`
			EndWord   *int     `json:"end_word"`
		} `json:"cuts"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return types.EditScript{}, fmt.Errorf("%w: %v", types.ErrUnusableEdit, err)
	}

	script := types.EditScript{Script: strings.TrimSpace(out.EditedTranscript)}
	for _, c := range out.Cuts {
		cut, ok := resolveCut(c.Reason, c.StartSec, c.EndSec, c.StartWord, c.EndWord, tr)
		if !ok {
			continue
		}
		script.Cuts = append(script.Cuts, cut)
	}
	return script, nil
}

func resolveCut(reason string, startSec, endSec *float64, startWord, endWord *int, tr types.Transcript) (types.CutDecision, bool) {
	cut := types.CutDecision{Reason: normalizeReason(reason)}
	switch {
	case startSec != nil && endSec != nil:
		cut.Start = dur(*startSec)
		cut.End = dur(*endSec)
	case startWord != nil && endWord != nil:
		if *startWord < 0 || *endWord >= len(tr.Words) || *startWord > *endWord {
			return types.CutDecision{}, false
		}
		cut.Start = tr.Words[*startWord].Start
		cut.End = tr.Words[*endWord].End
	default:
		return types.CutDecision{}, false
	}
	return cut, true
}

func normalizeReason(r string) types.CutReason {
	switch types.CutReason(strings.ToLower(strings.TrimSpace(r))) {
	case types.CutFiller:
		return types.CutFiller
	case types.CutFalseStart:
		return types.CutFalseStart
	case types.CutRepetition:
		return types.CutRepetition
	case types.CutSilence:
		return types.CutSilence
	default:
		return types.CutFiller
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("anthropic: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("anthropic: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	apiKeyHeaderRE = regexp.MustCompile(`(?i)(x-api-key\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE  = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = apiKeyHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}

func dur(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
