package bootchime_test

import (
	"testing"

	"github.com/scanlime-collective/roboodyssey/present/bootchime"
)

type recordingSink struct {
	queued [][]int8
}

func (r *recordingSink) QueueAudio(samples []int8) error {
	r.queued = append(r.queued, samples)
	return nil
}

func TestPlayIsANoOpForAnEmptyAsset(t *testing.T) {
	sink := &recordingSink{}
	if err := bootchime.Play(nil, sink); err != nil {
		t.Fatalf("Play(nil): %v", err)
	}
	if len(sink.queued) != 0 {
		t.Fatalf("expected no audio queued for an empty asset, got %d buffers", len(sink.queued))
	}
}

func TestDecodeRejectsDataThatIsNotMP3(t *testing.T) {
	_, _, err := bootchime.Decode([]byte("not an mp3 stream"))
	if err == nil {
		t.Fatal("expected an error decoding non-MP3 data")
	}
}
