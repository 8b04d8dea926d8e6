// Package capture records audio from a microphone and takes camera
// snapshots.
//
// A Recorder runs at most one recording at a time. Audio is read from a
// Microphone stream, buffered in one-second chunks and, on Stop, converted
// to 16kHz mono and encoded with the first supported format from
// PreferredMIMETypes. Recordings stop themselves after 60 seconds.
//
//	rec := capture.NewRecorder(capture.Config{
//	    Microphone: capture.CommandMicrophone("arecord", "-q", "-f", "S16_LE", "-r", "{rate}", "-c", "{channels}", "-t", "raw"),
//	})
//	if err := rec.Start(ctx); err != nil { ... }
//	blob, err := rec.Stop(ctx)
//
// All failures are *Error values carrying a Code.
package capture
