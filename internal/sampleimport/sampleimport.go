// Package sampleimport is the authoring-time front door for turning a PCM
// WAV file into the raw material for a new nspc.BrrSample: it decodes and
// downmixes a WAV file to mono 16-bit PCM, the same decode path the teacher
// uses in internal/getbpm/getbpm.go (wav.NewDecoder, ReadInfo, PCM access)
// to inspect sample length and rate. The module has no BRR/ADPCM encoder:
// the compiler uploads a BrrSample's Data bytes as given (§3.4 BRR Sample),
// and this package stops at decoded PCM, mirroring
// the teacher's own getbpm, which never re-encodes audio either.
package sampleimport

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

// PCM is mono 16-bit PCM decoded from a WAV file, ready to hand to a BRR
// encoder.
type PCM struct {
	Samples    []int16
	SampleRate int
}

// DecodeWav reads r as a WAV file and returns mono 16-bit PCM, downmixing
// stereo/multichannel input by averaging channels per frame.
func DecodeWav(r io.ReadSeeker) (PCM, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return PCM{}, fmt.Errorf("sampleimport: invalid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("sampleimport: decode PCM: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate == 0 {
		return PCM{}, fmt.Errorf("sampleimport: missing format info")
	}

	chans := buf.Format.NumChannels
	if chans <= 0 {
		chans = 1
	}
	frames := len(buf.Data) / chans
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < chans; c++ {
			sum += buf.Data[i*chans+c]
		}
		out[i] = int16(sum / chans)
	}

	return PCM{Samples: out, SampleRate: buf.Format.SampleRate}, nil
}
