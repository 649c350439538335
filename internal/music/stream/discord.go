package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"layeh.com/gopus"

	"tunesmith/internal/music/voice"
)

// Pump reads PCM from the stream, encodes opus frames and sends them to
// the voice connection until the source is exhausted or stop closes.
// A natural end of stream returns nil; decode and read faults return an
// error. Closing stop interrupts within one frame interval even when
// the send channel is backed up.
func Pump(pcm io.ReadCloser, stop <-chan struct{}, conn voice.Connection) error {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}

	defer pcm.Close()

	if err := conn.Speaking(true); err != nil {
		return fmt.Errorf("speaking error: %w", err)
	}
	defer conn.Speaking(false)

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		_, err := io.ReadFull(pcm, pcmBuf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}

		opus, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			return fmt.Errorf("encode error: %w", err)
		}

		select {
		case conn.Send() <- opus:
		case <-stop:
			return nil
		}
	}
}
