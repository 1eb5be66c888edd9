package piper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// player owns the oto context. The context is opened once and reused;
// oto keeps the device for the life of the process.
type player struct {
	ctx        *oto.Context
	sampleRate int
}

func newPlayer(sampleRate int) (*player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	octx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready
	return &player{ctx: octx, sampleRate: sampleRate}, nil
}

// play blocks until the PCM buffer drains or ctx is canceled. The
// buffer stays referenced by the reader for the whole playback, so the
// device never reads freed memory.
func (p *player) play(ctx context.Context, pcm []byte) error {
	op := p.ctx.NewPlayer(bytes.NewReader(pcm))
	defer op.Close()
	op.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for op.IsPlaying() {
		select {
		case <-ctx.Done():
			op.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
