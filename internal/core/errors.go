package core

// Error codes for domain errors.
const (
	ErrCodeNotRegistered = "not_registered"
	ErrCodeNameTaken     = "name_taken"
	ErrCodeNotFound      = "not_found"
	ErrCodeNotAMember    = "not_a_member"
	ErrCodeBadRequest    = "bad_request"
)

// CoreError wraps a code and human-readable message.
// The message is the exact text clients see in failure acks.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

var (
	ErrNotRegistered     = &CoreError{Code: ErrCodeNotRegistered, Message: "not registered"}
	ErrNameTaken         = &CoreError{Code: ErrCodeNameTaken, Message: "Username already taken"}
	ErrRecipientNotFound = &CoreError{Code: ErrCodeNotFound, Message: "Recipient not found"}
	ErrGroupNotFound     = &CoreError{Code: ErrCodeNotFound, Message: "Group not found"}
	ErrNotAMember        = &CoreError{Code: ErrCodeNotAMember, Message: "not a member"}
)
