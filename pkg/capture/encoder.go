package capture

// PreferredMIMETypes is the order in which recording encodings are tried.
var PreferredMIMETypes = []string{
	"audio/webm;codecs=opus",
	"audio/ogg;codecs=opus",
	"audio/wav",
	"audio/mp4",
}

// Encoder turns assembled PCM into a recording container.
type Encoder interface {
	MIMEType() string
	Encode(pcm []byte, f Format) ([]byte, error)
}

// WAVEncoder encodes recordings as 16-bit PCM WAV.
type WAVEncoder struct{}

func (WAVEncoder) MIMEType() string { return "audio/wav" }

func (WAVEncoder) Encode(pcm []byte, f Format) ([]byte, error) {
	return EncodeWAV(pcm, f)
}

// SelectEncoder returns the first encoder whose MIME type appears in
// preferred, in preference order. It returns nil when none match.
func SelectEncoder(preferred []string, encoders []Encoder) Encoder {
	for _, mt := range preferred {
		for _, e := range encoders {
			if e.MIMEType() == mt {
				return e
			}
		}
	}
	return nil
}
