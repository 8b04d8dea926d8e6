// Package chatcore is the boundary between a chat front end and the
// conversation machinery.
//
// A [Core] holds the state a single chat window needs: the attachments the
// user has picked but not yet sent, the microphone and camera, and the
// in-memory transcript. Sending a message hands text and attachments to a
// [chat.Orchestrator]; voice input is recorded with a [capture.Recorder] and
// turned into text by a [transcribe.Transcriber].
package chatcore
