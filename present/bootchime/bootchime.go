// Package bootchime decodes an optional bundled MP3 boot jingle and
// plays it once before the engine's first CGA frame — a presentation
// nicety layered entirely outside the engine core, never touched by
// anything under facade/sbtprocess/outqueue.
package bootchime

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/scanlime-collective/roboodyssey/rerrors"
)

// AudioSink is the minimal playback surface bootchime needs; both
// present/sdl.Window and a test double implement it by matching this
// signature.
type AudioSink interface {
	QueueAudio(samples []int8) error
}

// Decode decodes an MP3 asset's bytes into signed 8-bit mono PCM at
// the decoder's native sample rate, downmixing stereo by averaging
// channels and truncating 16-bit samples to 8-bit.
func Decode(mp3Data []byte) (samples []int8, sampleRate int, err error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(mp3Data))
	if err != nil {
		return nil, 0, rerrors.Errorf("bootchime: decode: %w", err)
	}

	var frame [4]byte
	for {
		_, err := io.ReadFull(dec, frame[:])
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, 0, rerrors.Errorf("bootchime: decode: %w", err)
		}

		left := int16(binary.LittleEndian.Uint16(frame[0:2]))
		right := int16(binary.LittleEndian.Uint16(frame[2:4]))
		mixed := (int32(left) + int32(right)) / 2
		samples = append(samples, int8(mixed>>8))
	}

	return samples, dec.SampleRate(), nil
}

// Play decodes mp3Data and queues the result to sink once. Errors
// decoding or queuing are returned; a missing or empty asset is not
// an error; the caller simply has no jingle to play.
func Play(mp3Data []byte, sink AudioSink) error {
	if len(mp3Data) == 0 {
		return nil
	}
	samples, _, err := Decode(mp3Data)
	if err != nil {
		return err
	}
	if err := sink.QueueAudio(samples); err != nil {
		return rerrors.Errorf("bootchime: play: %w", err)
	}
	return nil
}
