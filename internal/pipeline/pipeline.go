package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/forPelevin/cleancut/internal/config"
	"github.com/forPelevin/cleancut/internal/logger"
	"github.com/forPelevin/cleancut/internal/ports"
	"github.com/forPelevin/cleancut/internal/ports/adapters/anthropic"
	"github.com/forPelevin/cleancut/internal/ports/adapters/deepgram"
	"github.com/forPelevin/cleancut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/cleancut/internal/types"
	"github.com/forPelevin/cleancut/internal/usecase"
)

type Config struct {
	// WorkDir is the base directory for per-request workspaces. If empty,
	// defaults to ".cache".
	WorkDir string

	FFmpegPath  string
	FFprobePath string

	DeepgramAPIKey  string
	DeepgramModel   string
	DeepgramBaseURL string

	AnthropicAPIKey       string
	AnthropicModel        string
	AnthropicBaseURL      string
	AnthropicAllowedHosts []string
	AnthropicMaxTokens    int

	RetryAttempts  int
	RetryBaseDelay time.Duration

	Log logger.Logger
}

// FromConfig maps the file/env configuration onto the pipeline's explicit
// config object; nothing downstream touches the environment.
func FromConfig(c config.Config, log logger.Logger) Config {
	return Config{
		WorkDir:               c.Paths.Work,
		FFmpegPath:            c.FFmpeg.FFmpegPath,
		FFprobePath:           c.FFmpeg.FFprobePath,
		DeepgramAPIKey:        c.Deepgram.APIKey,
		DeepgramModel:         c.Deepgram.Model,
		DeepgramBaseURL:       c.Deepgram.BaseURL,
		AnthropicAPIKey:       c.Anthropic.APIKey,
		AnthropicModel:        c.Anthropic.Model,
		AnthropicBaseURL:      c.Anthropic.BaseURL,
		AnthropicAllowedHosts: c.Anthropic.AllowedHosts,
		AnthropicMaxTokens:    c.Anthropic.MaxTokens,
		RetryAttempts:         c.Retry.Attempts,
		RetryBaseDelay:        time.Duration(c.Retry.BaseDelayMS) * time.Millisecond,
		Log:                   log,
	}
}

func (c Config) Validate() error {
	if c.DeepgramAPIKey == "" {
		return errors.New("deepgram api key is required")
	}
	if c.AnthropicAPIKey == "" {
		return errors.New("anthropic api key is required")
	}
	return anthropic.ValidateBaseURL(c.AnthropicBaseURL, c.AnthropicAllowedHosts)
}

// Pipeline owns the wired adapters and hands each request an isolated
// workspace. It is safe for concurrent use; requests share nothing but the
// adapters, which are stateless.
type Pipeline struct {
	uc      usecase.Usecase
	workDir string
	log     logger.Logger
}

func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	// adapters
	v := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	asr := deepgram.New(cfg.DeepgramAPIKey, cfg.DeepgramModel, cfg.DeepgramBaseURL)
	editor := anthropic.New(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL, cfg.AnthropicMaxTokens)

	uc := usecase.New(usecase.Deps{
		Video:          v,
		ASR:            asr,
		Editor:         editor,
		Log:            log,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
	})

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = ".cache"
	}
	return &Pipeline{uc: uc, workDir: workDir, log: log}, nil
}

// Edit runs one input through the pipeline inside a fresh workspace. The
// returned cleanup removes the workspace (including the output file); call
// it once the output has been copied or streamed out. On error the
// workspace is already gone.
func (p *Pipeline) Edit(ctx context.Context, inputPath string, categories []types.CutReason) (usecase.Result, func(), error) {
	requestID := uuid.NewString()
	ws := filepath.Join(p.workDir, "runs", requestID)
	if err := os.MkdirAll(ws, 0o755); err != nil {
		return usecase.Result{}, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(ws) }

	p.log.Info(ctx, "request %s: workspace %s", requestID, ws)
	res, err := p.uc.Run(ctx, usecase.Input{
		InputPath:  inputPath,
		WorkDir:    ws,
		OutPath:    filepath.Join(ws, "edited"+outputExt(inputPath)),
		Categories: categories,
	})
	if err != nil {
		cleanup()
		return usecase.Result{}, nil, err
	}
	return res, cleanup, nil
}

// ParseCategories converts the request's comma-separated category list.
// Unknown names are rejected so a typo never silently disables a cut type.
func ParseCategories(s string) ([]types.CutReason, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []types.CutReason
	for _, part := range strings.Split(s, ",") {
		switch r := types.CutReason(strings.ToLower(strings.TrimSpace(part))); r {
		case types.CutFiller, types.CutFalseStart, types.CutRepetition, types.CutSilence:
			out = append(out, r)
		default:
			return nil, fmt.Errorf("unknown edit category %q", part)
		}
	}
	return out, nil
}

// OutputName builds a collision-free name for publishing an edited file to
// the shared outputs directory.
func OutputName(inputPath string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	seed := fmt.Sprintf("%s|%d", inputPath, now.UTC().UnixNano())
	return fmt.Sprintf("%s-edited-%s-%s%s", name, ts, hash(seed)[:6], outputExt(inputPath))
}

var audioExts = map[string]struct{}{
	".mp3": {}, ".wav": {}, ".m4a": {}, ".aac": {}, ".flac": {}, ".ogg": {},
}

// outputExt picks the container of the edited file: mp4 for anything with
// video, m4a for audio-only inputs (parts are aac either way).
func outputExt(inputPath string) string {
	ext := strings.ToLower(filepath.Ext(inputPath))
	if _, ok := audioExts[ext]; ok {
		return ".m4a"
	}
	return ".mp4"
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Transcriber = (*deepgram.Adapter)(nil)
var _ ports.ScriptEditor = (*anthropic.Adapter)(nil)
