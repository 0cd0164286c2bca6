package types

// DataEnvelope is the body of every successful response.
type DataEnvelope[T any] struct {
	Data T `json:"data"`
}

// Problem is the public description of a failed request. RequestID echoes the
// X-Request-Id header so clients can quote it when reporting issues.
type Problem struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ProblemEnvelope struct {
	Error Problem `json:"error"`
}
