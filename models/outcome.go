package models

type ErrorKind string

const (
	ErrorKind_NotFound          ErrorKind = "NotFound"
	ErrorKind_Unauthorized      ErrorKind = "Unauthorized"
	ErrorKind_InvalidTransition ErrorKind = "InvalidTransition"
	ErrorKind_Conflict          ErrorKind = "Conflict"
	ErrorKind_Timeout           ErrorKind = "Timeout"
	ErrorKind_Unknown           ErrorKind = "Unknown"
)

const (
	OutcomeMsg_NotFound        = "request not found"
	OutcomeMsg_NoIdentity      = "an authenticated actor identity is required"
	OutcomeMsg_AlreadyClaimed  = "already claimed by someone else"
	OutcomeMsg_StateChanged    = "request was changed by someone else, refresh and try again"
	OutcomeMsg_Timeout         = "request timed out, it is safe to retry"
	OutcomeMsg_Unknown         = "something went wrong"
	OutcomeMsgFmt_Unauthorized = "%s is not allowed on a %s request"
	OutcomeMsgFmt_Invalid      = "cannot %s a %s request"
	OutcomeMsgFmt_NotStaff     = "%s is not mediator staff and cannot be assigned a request"
)

// Outcome is the result of a transition attempt. Failures are reported here rather than as errors so callers can branch
// on ErrorKind.
type Outcome struct {
	Success   bool          `json:"success"`
	NewStatus RequestStatus `json:"newStatus,omitempty"`
	Message   string        `json:"message,omitempty"`
	ErrorKind ErrorKind     `json:"errorKind,omitempty"`
}

// Retryable is true only for outcomes where the caller cannot know whether the transition was applied.
func (o Outcome) Retryable() bool {
	return o.ErrorKind == ErrorKind_Timeout
}

func Succeeded(newStatus RequestStatus) Outcome {
	return Outcome{Success: true, NewStatus: newStatus}
}

func Failed(kind ErrorKind, message string) Outcome {
	return Outcome{ErrorKind: kind, Message: message}
}
