package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Stream is an open microphone delivering PCM in its Format. Closing the
// stream releases the device and unblocks a pending Read.
type Stream interface {
	io.ReadCloser
	Format() Format
}

// Microphone opens capture streams.
type Microphone interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// ReaderMicrophone is a Microphone backed by a byte stream such as a file,
// a pipe from arecord or stdin. Raw PCM is assumed to be in the requested
// format unless Format is set; WAV input is detected from its header.
type ReaderMicrophone struct {
	// Source opens the underlying reader. It is called once per Open.
	Source func() (io.ReadCloser, error)

	// Format overrides the format of raw PCM input.
	Format Format
}

// FileMicrophone reads from a file path, or stdin when path is "-".
func FileMicrophone(path string) *ReaderMicrophone {
	return &ReaderMicrophone{
		Source: func() (io.ReadCloser, error) {
			if path == "-" {
				return os.Stdin, nil
			}
			return os.Open(path)
		},
	}
}

// Open implements Microphone.
func (m *ReaderMicrophone) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Source == nil {
		return nil, errors.New("capture: no audio source")
	}
	rc, err := m.Source()
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(rc)
	format := c.Format
	if m.Format.valid() {
		format = m.Format
	}
	if head, err := br.Peek(4); err == nil && string(head) == "RIFF" {
		wf, err := ReadWAVHeader(br)
		if err != nil {
			rc.Close()
			return nil, err
		}
		format = wf
	}
	if !format.valid() {
		rc.Close()
		return nil, fmt.Errorf("capture: unknown input format %v", format)
	}
	return &readerStream{r: br, c: rc, format: format}, nil
}

type readerStream struct {
	r      io.Reader
	c      io.Closer
	format Format

	once     sync.Once
	closeErr error
}

func (s *readerStream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *readerStream) Format() Format {
	return s.format
}

func (s *readerStream) Close() error {
	s.once.Do(func() {
		s.closeErr = s.c.Close()
	})
	return s.closeErr
}

// ParseFormat parses "16000", "16000:1" or "44100:2" as rate[:channels].
func ParseFormat(s string) (Format, error) {
	rate, ch, found := strings.Cut(s, ":")
	f := Format{Channels: 1}
	if _, err := fmt.Sscanf(rate, "%d", &f.SampleRate); err != nil {
		return Format{}, fmt.Errorf("capture: invalid sample rate %q", rate)
	}
	if found {
		if _, err := fmt.Sscanf(ch, "%d", &f.Channels); err != nil {
			return Format{}, fmt.Errorf("capture: invalid channel count %q", ch)
		}
	}
	if !f.valid() {
		return Format{}, fmt.Errorf("capture: invalid format %q", s)
	}
	return f, nil
}

// CommandMicrophone runs an external recorder per Open and reads raw PCM from
// its stdout. The placeholders {rate} and {channels} in args are replaced by
// the requested format, e.g.
//
//	CommandMicrophone("arecord", "-q", "-f", "S16_LE", "-r", "{rate}", "-c", "{channels}", "-t", "raw")
//
// Closing the stream kills the process.
func CommandMicrophone(name string, args ...string) Microphone {
	return &commandMicrophone{name: name, args: args}
}

type commandMicrophone struct {
	name string
	args []string
}

func (m *commandMicrophone) Open(ctx context.Context, c Constraints) (Stream, error) {
	if !c.Format.valid() {
		return nil, fmt.Errorf("capture: invalid format %v", c.Format)
	}
	args := make([]string, len(m.args))
	for i, a := range m.args {
		a = strings.ReplaceAll(a, "{rate}", strconv.Itoa(c.Format.SampleRate))
		args[i] = strings.ReplaceAll(a, "{channels}", strconv.Itoa(c.Format.Channels))
	}

	// The process outlives Open, so it is not bound to ctx.
	cmd := exec.Command(m.name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture: start %s: %w", m.name, err)
	}
	if err := ctx.Err(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	return &readerStream{r: stdout, c: processCloser{cmd}, format: c.Format}, nil
}

type processCloser struct {
	cmd *exec.Cmd
}

func (p processCloser) Close() error {
	_ = p.cmd.Process.Kill()
	// Wait closes stdout; the exit status of a killed recorder is expected.
	_ = p.cmd.Wait()
	return nil
}
