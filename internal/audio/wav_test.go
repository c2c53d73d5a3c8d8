package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAV(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xff, 0x7f, 0x00, 0x80}

	wav, err := EncodeWAV(pcm, DefaultSpeechSampleRate)
	require.NoError(t, err)
	require.Len(t, wav, 44+len(pcm))

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(wav[16:20]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]), "PCM format")
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:34]), "block align")
	assert.Equal(t, pcm, wav[44:])

	header, err := ParseWAVHeader(wav)
	require.NoError(t, err)
	assert.Equal(t, Header{Channels: 1, SampleRate: 24000, BitsPerSample: 16, DataSize: len(pcm)}, header)
}

func TestEncodeWAVRejectsBadInput(t *testing.T) {
	_, err := EncodeWAV([]byte{1, 2, 3}, 16000)
	assert.Error(t, err)

	_, err = EncodeWAV([]byte{1, 2}, 0)
	assert.Error(t, err)
}

func TestEncodeWAVEmptyData(t *testing.T) {
	wav, err := EncodeWAV(nil, DefaultCaptureSampleRate)
	require.NoError(t, err)
	header, err := ParseWAVHeader(wav)
	require.NoError(t, err)
	assert.Equal(t, 0, header.DataSize)
	assert.Equal(t, 16000, header.SampleRate)
}

func TestParseWAVHeaderRejectsGarbage(t *testing.T) {
	_, err := ParseWAVHeader([]byte("short"))
	assert.Error(t, err)

	junk := make([]byte, 44)
	copy(junk, "RIFX")
	_, err = ParseWAVHeader(junk)
	assert.Error(t, err)
}
