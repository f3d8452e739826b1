package types

// SuccessEnvelope wraps every 2xx body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failed request. RequestID repeats the
// X-Request-Id header so clients can quote it when reporting a problem.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewErrorEnvelope builds an error body, dropping details that carry nothing.
func NewErrorEnvelope(code, message string, details any) ErrorEnvelope {
	if isEmptyDetails(details) {
		details = nil
	}
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, Details: details}}
}

func isEmptyDetails(details any) bool {
	switch d := details.(type) {
	case nil:
		return true
	case map[string]any:
		return len(d) == 0
	case map[string]string:
		return len(d) == 0
	case []string:
		return len(d) == 0
	}
	return false
}
