// Package audio упаковывает сырые PCM-сэмплы в WAV-контейнер.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// DefaultCaptureSampleRate: частота записи с микрофона
	DefaultCaptureSampleRate = 16000
	// DefaultSpeechSampleRate: частота PCM, который отдает сервис синтеза речи
	DefaultSpeechSampleRate = 24000

	// WAVMimeType: mime-тип результата EncodeWAV
	WAVMimeType = "audio/wav"

	headerSize    = 44
	channels      = 1
	bitsPerSample = 16
	pcmFormat     = 1
)

var errOddSampleData = errors.New("pcm data length must be a multiple of 2 bytes")

// EncodeWAV оборачивает 16-битный моно PCM (little-endian) в канонический
// 44-байтный RIFF/WAVE заголовок.
func EncodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if len(pcm)%2 != 0 {
		return nil, errOddSampleData
	}

	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := uint32(len(pcm))

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(pcm)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36)+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(pcmFormat))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// Header: разобранный заголовок WAV
type Header struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataSize      int
}

// ParseWAVHeader читает канонический 44-байтный заголовок
func ParseWAVHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, fmt.Errorf("wav too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Header{}, errors.New("not a RIFF/WAVE container")
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return Header{}, errors.New("non-canonical wav header")
	}
	return Header{
		Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
		DataSize:      int(binary.LittleEndian.Uint32(data[40:44])),
	}, nil
}
