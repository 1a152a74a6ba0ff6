package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldRecordID  = "record_id"
	FieldError     = "error"
	FieldSeq       = "seq"
	FieldCount     = "count"
)

// ComponentCLI tags entries from the command-line surface.
const ComponentCLI = "cli"
