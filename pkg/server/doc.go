// Package server exposes a chat over a websocket so a browser front end can
// drive it.
//
// Each connection gets its own [chatcore.Core] and therefore its own remote
// session. Frames are JSON objects with a "type" field:
//
//	submit      {"type":"submit","id":"1","text":"Hallo","files":[{"name":"a.pdf","mime_type":"application/pdf","data":"<base64>"}]}
//	transcribe  {"type":"transcribe","id":"2","mime_type":"audio/webm","audio":"<base64>"}
//	reset       {"type":"reset","id":"3"}
//	ping        {"type":"ping","id":"4"}
//
// The server answers with ack, reply, transcript, reset, pong and error
// frames carrying the request id. Replies arrive in submission order.
package server
