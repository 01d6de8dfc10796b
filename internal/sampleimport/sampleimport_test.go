package sampleimport

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWav assembles a minimal canonical PCM WAV file (RIFF/WAVE, fmt ,
// data) for the given 16-bit interleaved samples.
func buildWav(t *testing.T, numChannels, sampleRate int, interleaved []int16) []byte {
	t.Helper()
	var data bytes.Buffer
	for _, s := range interleaved {
		require.NoError(t, binary.Write(&data, binary.LittleEndian, s))
	}

	const bitsPerSample = 16
	blockAlign := numChannels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var fmtChunk bytes.Buffer
	require.NoError(t, binary.Write(&fmtChunk, binary.LittleEndian, uint16(1))) // PCM
	require.NoError(t, binary.Write(&fmtChunk, binary.LittleEndian, uint16(numChannels)))
	require.NoError(t, binary.Write(&fmtChunk, binary.LittleEndian, uint32(sampleRate)))
	require.NoError(t, binary.Write(&fmtChunk, binary.LittleEndian, uint32(byteRate)))
	require.NoError(t, binary.Write(&fmtChunk, binary.LittleEndian, uint16(blockAlign)))
	require.NoError(t, binary.Write(&fmtChunk, binary.LittleEndian, uint16(bitsPerSample)))

	var out bytes.Buffer
	out.WriteString("RIFF")
	riffLen := uint32(4 + (8 + fmtChunk.Len()) + (8 + data.Len()))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, riffLen))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	require.NoError(t, binary.Write(&out, binary.LittleEndian, uint32(fmtChunk.Len())))
	out.Write(fmtChunk.Bytes())

	out.WriteString("data")
	require.NoError(t, binary.Write(&out, binary.LittleEndian, uint32(data.Len())))
	out.Write(data.Bytes())

	return out.Bytes()
}

func TestDecodeWavMono(t *testing.T) {
	raw := buildWav(t, 1, 44100, []int16{100, -200, 300})

	pcm, err := DecodeWav(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 44100, pcm.SampleRate)
	assert.Equal(t, []int16{100, -200, 300}, pcm.Samples)
}

func TestDecodeWavStereoDownmixesByAveraging(t *testing.T) {
	// Frame 0: L=100 R=300 -> 200; frame 1: L=-100 R=-300 -> -200.
	raw := buildWav(t, 2, 48000, []int16{100, 300, -100, -300})

	pcm, err := DecodeWav(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 48000, pcm.SampleRate)
	assert.Equal(t, []int16{200, -200}, pcm.Samples)
}

func TestDecodeWavRejectsInvalidFile(t *testing.T) {
	_, err := DecodeWav(bytes.NewReader([]byte("not a wav file")))
	assert.Error(t, err)
}
