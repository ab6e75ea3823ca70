// Package soundcapture is an optional recorder that drains the
// engine's OnRenderSound buffers to a .wav file, for building or
// refreshing audio regression fixtures against a known-good run.
package soundcapture

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/scanlime-collective/roboodyssey/rerrors"
)

// bitDepth is the capture format's sample width; outqueue.Queue
// produces signed 8-bit PCM, so the wav file is written at the same
// depth rather than upsampling.
const bitDepth = 8

// Recorder accumulates PCM buffers into an open .wav file. Call
// WriteSamples once per OnRenderSound callback, in order, then Close.
type Recorder struct {
	file    *os.File
	encoder *wav.Encoder
	format  *audio.Format
}

// Create opens filename and begins a new mono capture at sampleRate.
func Create(filename string, sampleRate int) (*Recorder, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, rerrors.Errorf("soundcapture: create: %w", err)
	}

	format := &audio.Format{NumChannels: 1, SampleRate: sampleRate}
	enc := wav.NewEncoder(f, sampleRate, bitDepth, format.NumChannels, 1)

	return &Recorder{file: f, encoder: enc, format: format}, nil
}

// WriteSamples appends one buffer of signed 8-bit PCM samples, as
// delivered by outqueue.Queue's OnRenderSound callback.
func (r *Recorder) WriteSamples(samples []int8) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{Format: r.format, Data: data, SourceBitDepth: bitDepth}
	if err := r.encoder.Write(buf); err != nil {
		return rerrors.Errorf("soundcapture: write: %w", err)
	}
	return nil
}

// Close finalizes the .wav header and closes the underlying file.
func (r *Recorder) Close() error {
	if err := r.encoder.Close(); err != nil {
		return rerrors.Errorf("soundcapture: close encoder: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return rerrors.Errorf("soundcapture: close file: %w", err)
	}
	return nil
}
