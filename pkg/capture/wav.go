package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const wavHeaderSize = 44

// EncodeWAV wraps PCM samples in a canonical 44-byte RIFF/WAVE header.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	if !f.valid() {
		return nil, fmt.Errorf("capture: invalid format %v", f)
	}
	if len(pcm)%f.FrameBytes() != 0 {
		return nil, fmt.Errorf("capture: pcm length %d is not a multiple of frame size %d", len(pcm), f.FrameBytes())
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	w := func(v any) { _ = binary.Write(buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	w(uint32(36 + len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1)) // PCM
	w(uint16(f.Channels))
	w(uint32(f.SampleRate))
	w(uint32(f.BytesRate()))
	w(uint16(f.FrameBytes()))
	w(uint16(16))

	buf.WriteString("data")
	w(uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// ReadWAVHeader consumes a RIFF/WAVE header from r up to the start of the
// data chunk and returns the PCM format. Only 16-bit PCM is accepted.
func ReadWAVHeader(r io.Reader) (Format, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Format{}, fmt.Errorf("capture: read wav header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Format{}, errors.New("capture: not a RIFF/WAVE stream")
	}

	var f Format
	var haveFmt bool
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return Format{}, fmt.Errorf("capture: read wav chunk: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return Format{}, fmt.Errorf("capture: wav fmt chunk too small (%d)", size)
			}
			body := make([]byte, size+size%2)
			if _, err := io.ReadFull(r, body); err != nil {
				return Format{}, fmt.Errorf("capture: read wav fmt: %w", err)
			}
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if audioFormat != 1 && audioFormat != 0xFFFE {
				return Format{}, fmt.Errorf("capture: unsupported wav encoding %d", audioFormat)
			}
			if bits != 16 {
				return Format{}, fmt.Errorf("capture: unsupported wav bit depth %d", bits)
			}
			f.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return Format{}, errors.New("capture: wav data chunk before fmt chunk")
			}
			if !f.valid() {
				return Format{}, fmt.Errorf("capture: invalid wav format %v", f)
			}
			return f, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size+size%2)); err != nil {
				return Format{}, fmt.Errorf("capture: skip wav chunk %q: %w", id, err)
			}
		}
	}
}
