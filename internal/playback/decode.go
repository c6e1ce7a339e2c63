package playback

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// Decoder turns a clip into raw 48kHz stereo s16le PCM.
type Decoder interface {
	Decode(ctx context.Context, path string) (io.ReadCloser, error)
}

// FFmpegDecoder shells out to ffmpeg.
type FFmpegDecoder struct {
	Binary string
}

func (d FFmpegDecoder) Decode(ctx context.Context, path string) (io.ReadCloser, error) {
	bin := d.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-i", path,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("command start error: %w", err)
	}

	return &processReader{ReadCloser: reader, cmd: cmd}, nil
}

// processReader kills and reaps the decoder when closed.
type processReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (p *processReader) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.ReadCloser.Close()
	_ = p.cmd.Wait()
	return nil
}
