// Package chat serializes user turns against a remote assistant session.
//
// An Orchestrator accepts turns from any goroutine and processes them one at
// a time, strictly in submission order:
//
//	o, err := chat.New(chat.Config{
//	    Remote:      chat.NewRemote(assistants.NewClient(apiKey)),
//	    Uploader:    upload.NewCoordinator(upload.Config{Files: client.Files}),
//	    AssistantID: "asst_...",
//	})
//	p := o.Submit("Hello", nil)
//	reply, err := p.Wait(ctx)
//
// A failed turn is rejected with *TurnError, whose Fallback holds the text to
// show the user in place of a reply.
package chat
