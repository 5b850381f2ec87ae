package core

// error_messages.go maps technical errors to operator-facing codes.
//
// Codes are grouped by category:
//
//	CONN001 - Store unreachable: the PostgreSQL connection failed (fatal)
//	CONN002 - Endpoint unreachable: the RPC endpoint could not be reached (fatal
//	          before the first batch, isolated afterwards)
//	AUTH001 - Authentication rejected by the RPC endpoint (fatal)
//	SCH001  - Tag relation not discovered; tags column left empty (degraded)
//	SCH002  - Locale key not discovered; default locale used (degraded)
//	SCH003  - Requested locale has no stored translations; labels fall back
//	          to en_US (degraded)
//	RPC001  - Batch request timed out (isolated)
//	RPC002  - Batch rejected by server-side validation (isolated)
//	RPC003  - Batch denied by access rules (isolated)
//	RPC004  - Server or transport error during a batch (isolated)
//	ERR000  - Unknown error
//
// Patterns are matched case-insensitively using strings.Contains. The first
// matching pattern wins, so specific patterns come before general ones.

import "strings"

// UserMessage provides operator-friendly error information.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Stable code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgStoreUnreachable = UserMessage{
		Message: "Unable to connect to the database",
		Action:  "Check DATABASE_URL and that the server is running",
		Code:    "CONN001",
	}
	msgEndpointUnreachable = UserMessage{
		Message: "Unable to reach the RPC endpoint",
		Action:  "Check ODOO_URL and that the service is running",
		Code:    "CONN002",
	}
	msgAuth = UserMessage{
		Message: "Authentication was rejected",
		Action:  "Check ODOO_DB, ODOO_USER and ODOO_PASSWORD",
		Code:    "AUTH001",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Lower ODOO_BATCH_SIZE or raise ODOO_REQUEST_TIMEOUT",
		Code:    "RPC001",
	}
	msgValidation = UserMessage{
		Message: "Request was rejected by server-side validation",
		Action:  "Check the field list against the server version",
		Code:    "RPC002",
	}
	msgAccess = UserMessage{
		Message: "Access to a model or field was denied",
		Action:  "Grant the export user read access to CRM, contacts and UTM records",
		Code:    "RPC003",
	}
	msgServer = UserMessage{
		Message: "The server returned an error",
		Action:  "Check the server logs and re-run the export",
		Code:    "RPC004",
	}
	msgUnknown = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Check the logs for the technical error",
		Code:    "ERR000",
	}
)

var errorPatterns = []errorPattern{
	// Authentication
	{pattern: "authentication failed", msg: msgAuth},
	{pattern: "access denied for login", msg: msgAuth},

	// Access rules
	{pattern: "accesserror", msg: msgAccess},
	{pattern: "access denied", msg: msgAccess},
	{pattern: "not allowed to access", msg: msgAccess},
	{pattern: "permission denied", msg: msgAccess},

	// Validation
	{pattern: "validationerror", msg: msgValidation},
	{pattern: "usererror", msg: msgValidation},
	{pattern: "invalid field", msg: msgValidation},
	{pattern: "valueerror", msg: msgValidation},

	// Timeouts
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "timeout", msg: msgTimeout},

	// Connectivity
	{pattern: "failed to connect to", msg: msgStoreUnreachable},
	{pattern: "ping database", msg: msgStoreUnreachable},
	{pattern: "connection refused", msg: msgEndpointUnreachable},
	{pattern: "no such host", msg: msgEndpointUnreachable},
	{pattern: "connection reset", msg: msgEndpointUnreachable},

	// Server side
	{pattern: "server error", msg: msgServer},
	{pattern: "http status", msg: msgServer},
	{pattern: "decode response", msg: msgServer},
}

// Classify maps technical error text to a UserMessage.
func Classify(errText string) UserMessage {
	lower := strings.ToLower(errText)
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}
	return msgUnknown
}

// ClassifyError is Classify for an error value. A nil error maps to ERR000.
func ClassifyError(err error) UserMessage {
	if err == nil {
		return msgUnknown
	}
	return Classify(err.Error())
}

// Degraded-mode warnings, recorded in the summary rather than returned.
const (
	CodeTagRelationMissing = "SCH001"
	CodeLocaleDefaulted    = "SCH002"
	CodeLocaleNotStored    = "SCH003"
)
