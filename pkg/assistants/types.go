package assistants

import "encoding/json"

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RunStatus is the lifecycle status of a run.
type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCancelled      RunStatus = "cancelled"
	RunFailed         RunStatus = "failed"
	RunCompleted      RunStatus = "completed"
	RunIncomplete     RunStatus = "incomplete"
	RunExpired        RunStatus = "expired"
)

// IsTerminal reports whether the service will not change the status again.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunCancelled, RunFailed, RunCompleted, RunIncomplete, RunExpired:
		return true
	}
	return false
}

// FilePurpose is the intended use of an uploaded file.
type FilePurpose string

const (
	PurposeAssistants FilePurpose = "assistants"
	PurposeVision     FilePurpose = "vision"
)

// Thread is a remote conversation session.
type Thread struct {
	ID        string            `json:"id"`
	Object    string            `json:"object,omitempty"`
	CreatedAt int64             `json:"created_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// DeleteResult is returned by delete endpoints.
type DeleteResult struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	Deleted bool   `json:"deleted"`
}

// File is an uploaded file.
type File struct {
	ID        string `json:"id"`
	Object    string `json:"object,omitempty"`
	Bytes     int64  `json:"bytes"`
	CreatedAt int64  `json:"created_at,omitempty"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
}

// Tool names a tool an attachment is made available to.
type Tool struct {
	Type string `json:"type"`
}

// Attachment links an uploaded file to a message.
type Attachment struct {
	FileID string `json:"file_id"`
	Tools  []Tool `json:"tools,omitempty"`
}

// Message is a message within a thread.
type Message struct {
	ID          string            `json:"id"`
	Object      string            `json:"object,omitempty"`
	CreatedAt   int64             `json:"created_at,omitempty"`
	ThreadID    string            `json:"thread_id,omitempty"`
	Role        Role              `json:"role"`
	Content     Content           `json:"content"`
	AssistantID string            `json:"assistant_id,omitempty"`
	RunID       string            `json:"run_id,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// MessageRequest is the request body for posting a message.
type MessageRequest struct {
	Role        Role              `json:"role"`
	Content     Content           `json:"content"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// MessageList is one page of messages.
type MessageList struct {
	Object  string    `json:"object,omitempty"`
	Data    []Message `json:"data"`
	FirstID string    `json:"first_id,omitempty"`
	LastID  string    `json:"last_id,omitempty"`
	HasMore bool      `json:"has_more"`
}

// Order is a list sort order.
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// ListOptions are query parameters for listing messages. A nil value lists
// newest first with the service's default page size.
type ListOptions struct {
	Limit  int
	Order  Order
	After  string
	Before string
	RunID  string
}

// RunRequest is the request body for starting a run.
type RunRequest struct {
	AssistantID            string            `json:"assistant_id"`
	Model                  string            `json:"model,omitempty"`
	Instructions           string            `json:"instructions,omitempty"`
	AdditionalInstructions string            `json:"additional_instructions,omitempty"`
	Metadata               map[string]string `json:"metadata,omitempty"`
}

// Run is one execution of the assistant against a thread.
type Run struct {
	ID          string          `json:"id"`
	Object      string          `json:"object,omitempty"`
	CreatedAt   int64           `json:"created_at,omitempty"`
	ThreadID    string          `json:"thread_id"`
	AssistantID string          `json:"assistant_id,omitempty"`
	Status      RunStatus       `json:"status"`
	Model       string          `json:"model,omitempty"`
	LastError   *RunError       `json:"last_error,omitempty"`
	StartedAt   int64           `json:"started_at,omitempty"`
	CompletedAt int64           `json:"completed_at,omitempty"`
	FailedAt    int64           `json:"failed_at,omitempty"`
	Usage       json.RawMessage `json:"usage,omitempty"`
}

// RunError describes why a run failed.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
