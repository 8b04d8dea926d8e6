// Package transcribe converts recorded speech to text.
//
// Client wraps the OpenAI audio transcription endpoint with the whisper-1
// model and a German language hint. Failures are reported as *Error with a
// Code that the presentation layer maps to user-facing text.
package transcribe
