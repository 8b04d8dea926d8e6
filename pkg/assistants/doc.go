// Package assistants provides a client for the hosted assistant thread API.
//
// The API is stateful: a conversation lives in a thread, user input is posted
// as messages, and the assistant answers through runs that complete
// asynchronously.
//
// # Quick Start
//
//	client := assistants.NewClient("sk-...")
//
//	thread, err := client.Threads.Create(ctx)
//	_, err = client.Messages.Create(ctx, thread.ID, &assistants.MessageRequest{
//	    Content: assistants.TextContent("Hello"),
//	})
//	run, err := client.Runs.Create(ctx, thread.ID, &assistants.RunRequest{
//	    AssistantID: "asst_...",
//	})
//
// The client issues one HTTP request per call and never retries. Polling runs
// to completion is the caller's job; see package chat.
//
// # Error Handling
//
//	if e, ok := assistants.AsError(err); ok {
//	    fmt.Printf("API Error: %d - %s\n", e.HTTPStatus, e.Message)
//	}
package assistants
