package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"layeh.com/gopus"
)

// Encoder turns one frame of interleaved PCM samples into an opus packet.
type Encoder interface {
	Encode(pcm []int16) ([]byte, error)
}

type opusEncoder struct {
	enc *gopus.Encoder
}

// NewOpusEncoder returns a 48kHz stereo opus encoder.
func NewOpusEncoder() (Encoder, error) {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("encoder error: %w", err)
	}
	return &opusEncoder{enc: enc}, nil
}

func (e *opusEncoder) Encode(pcm []int16) ([]byte, error) {
	return e.enc.Encode(pcm, frameSize, frameSize*channels*2)
}

// streamFrames reads PCM until EOF and pushes encoded frames to out.
// It returns nil on natural end of stream or when stop closes, and
// ErrTransportError when out accepts nothing for frameTimeout.
func streamFrames(pcm io.Reader, enc Encoder, out chan<- []byte, stop <-chan struct{}, frameTimeout time.Duration) (int, error) {
	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)
	sent := 0

	stall := time.NewTimer(frameTimeout)
	defer stall.Stop()

	for {
		select {
		case <-stop:
			return sent, nil
		default:
		}

		_, err := io.ReadFull(pcm, pcmBuf)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return sent, nil
		}
		if err != nil {
			return sent, fmt.Errorf("read error: %w", err)
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}

		opus, err := enc.Encode(intBuf)
		if err != nil {
			return sent, fmt.Errorf("encode error: %w", err)
		}

		if !stall.Stop() {
			select {
			case <-stall.C:
			default:
			}
		}
		stall.Reset(frameTimeout)

		select {
		case out <- opus:
			sent++
		case <-stop:
			return sent, nil
		case <-stall.C:
			return sent, fmt.Errorf("%w: no frame accepted for %s", ErrTransportError, frameTimeout)
		}
	}
}
