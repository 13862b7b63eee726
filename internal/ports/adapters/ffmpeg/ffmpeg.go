package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/cleancut/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudioMP3(ctx context.Context, in, outMP3 string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-vn",
		"-f", "mp3",
		outMP3,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

// CutConcat renders each kept range into a numbered part inside workDir,
// then concatenates the parts into out. Callers must never pass an empty
// range list; that condition is decided before the tool is invoked.
func (a *Adapter) CutConcat(ctx context.Context, in string, ranges []types.KeptRange, workDir, out string) error {
	if len(ranges) == 0 {
		return fmt.Errorf("ffmpeg cut: no ranges to render")
	}

	hasVideo, err := a.hasVideoStream(ctx, in)
	if err != nil {
		return err
	}

	parts := make([]string, 0, len(ranges))
	for i, r := range ranges {
		part := filepath.Join(workDir, fmt.Sprintf("part-%03d%s", i+1, partExt(hasVideo)))
		if err := a.renderPart(ctx, in, r, part, hasVideo); err != nil {
			return err
		}
		parts = append(parts, part)
	}

	listPath := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(ConcatList(parts)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w\n%s", err, string(b))
	}
	return nil
}

// renderPart re-encodes one range. Parts share a codec so the final concat
// can stream-copy without discontinuity artifacts at the joins.
func (a *Adapter) renderPart(ctx context.Context, in string, r types.KeptRange, out string, hasVideo bool) error {
	args := []string{
		"-y",
		"-ss", fmtSeconds(r.Start),
		"-to", fmtSeconds(r.End),
		"-i", in,
	}
	if hasVideo {
		args = append(args,
			"-c:v", "libx264",
			"-preset", "veryfast",
			"-crf", "18",
		)
	}
	args = append(args,
		"-c:a", "aac",
		"-b:a", "192k",
		out,
	)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render part %s-%s: %w\n%s", r.Start, r.End, err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func (a *Adapter) hasVideoStream(ctx context.Context, in string) (bool, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v",
		"-show_entries", "stream=codec_type",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("ffprobe streams: %w\n%s", err, string(b))
	}
	return strings.Contains(string(b), "video"), nil
}

// ConcatList renders the concat-demuxer file list for the given part paths.
func ConcatList(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString("file '")
		b.WriteString(escapeConcatPath(p))
		b.WriteString("'\n")
	}
	return b.String()
}

// Parts are always aac (plus h264 when video is present), so the container
// is fixed regardless of the input extension.
func partExt(hasVideo bool) string {
	if hasVideo {
		return ".mp4"
	}
	return ".m4a"
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}
