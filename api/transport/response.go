package transport

import "encoding/json"

// ErrorBody is the machine-readable error half of an envelope. Details holds
// whatever structured context the handler has, such as per-dependency health.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Envelope wraps every API response. Success responses carry Data; error
// responses carry Error. CorrelationID echoes the request's tracing ID so a
// client can quote it when reporting a failure.
type Envelope struct {
	Status        string      `json:"status"`
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorBody  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

func NewSuccess(data interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
	}
}

func NewError(code, message string, details interface{}) Envelope {
	return Envelope{
		Status: "error",
		Error: &ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// WithCorrelation stamps the envelope with a tracing ID and returns it for
// chaining. An empty ID leaves the envelope untouched.
func (e Envelope) WithCorrelation(id string) Envelope {
	e.CorrelationID = id
	return e
}

// String renders the envelope as JSON for logging, best effort.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
