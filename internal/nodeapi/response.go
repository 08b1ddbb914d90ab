package nodeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Result is a decoded node response, independent of API generation.
// For modern bodies Data and Meta are the "data" and "meta" members. For
// legacy bodies Data is the whole object, since legacy payloads keep their
// fields at the top level. Non-object bodies (e.g. a bare peer array) are
// carried in Data unchanged.
type Result struct {
	Status int
	Data   json.RawMessage
	Meta   json.RawMessage
	Errors json.RawMessage
	Raw    []byte
}

// Decode unmarshals Data into v.
func (r *Result) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return &APIError{Status: r.Status, Message: "response has no data", Err: ErrMalformedResponse}
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return &APIError{Status: r.Status, Message: "decode data", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

// envelope is one generation's response body shape.
type envelope interface {
	result(status int, raw []byte) (*Result, error)
}

// LegacyEnvelope is the v1 body: {"success": bool, "error": "...", ...fields}.
type LegacyEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *LegacyEnvelope) result(status int, raw []byte) (*Result, error) {
	if status >= http.StatusBadRequest || !e.Success {
		msg := e.Error
		if msg == "" {
			msg = e.Message
		}
		if msg == "" && !e.Success {
			msg = "request was not successful"
		}
		return nil, &APIError{Status: status, Message: msg}
	}
	return &Result{Status: status, Data: json.RawMessage(raw), Raw: raw}, nil
}

// ModernEnvelope is the v2 body: {"data": ..., "meta": ...} on success,
// {"statusCode", "error", "message"} on failure. Transaction submission
// also reports per-transaction "errors" next to "data".
type ModernEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Meta       json.RawMessage `json:"meta"`
	Errors     json.RawMessage `json:"errors"`
	StatusCode int             `json:"statusCode"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
}

func (e *ModernEnvelope) result(status int, raw []byte) (*Result, error) {
	failed := status >= http.StatusBadRequest ||
		e.StatusCode >= http.StatusBadRequest ||
		(len(e.Data) == 0 && (e.Error != "" || e.Message != ""))
	if failed {
		code := status
		if code < http.StatusBadRequest && e.StatusCode >= http.StatusBadRequest {
			code = e.StatusCode
		}
		msg := e.Message
		if msg == "" {
			msg = e.Error
		}
		return nil, &APIError{Status: code, Message: msg, Errors: e.Errors}
	}
	return &Result{Status: status, Data: e.Data, Meta: e.Meta, Errors: e.Errors, Raw: raw}, nil
}

// DecodeResponse normalizes a response body into a Result. The generation
// is read from the body: a top-level "success" member marks a legacy body.
func DecodeResponse(status int, body []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		if status >= http.StatusBadRequest {
			return nil, &APIError{Status: status}
		}
		return nil, &APIError{Status: status, Message: "empty body", Err: ErrMalformedResponse}
	}

	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			if status >= http.StatusBadRequest {
				return nil, &APIError{Status: status, Message: string(truncate(trimmed, 120))}
			}
			return nil, &APIError{Status: status, Message: "not json", Err: ErrMalformedResponse}
		}
		if status >= http.StatusBadRequest {
			return nil, &APIError{Status: status}
		}
		return &Result{Status: status, Data: json.RawMessage(trimmed), Raw: body}, nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &members); err != nil {
		return nil, &APIError{Status: status, Message: "decode body", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}

	var env envelope
	if _, ok := members["success"]; ok {
		env = &LegacyEnvelope{}
	} else {
		env = &ModernEnvelope{}
	}
	if err := json.Unmarshal(trimmed, env); err != nil {
		return nil, &APIError{Status: status, Message: "decode envelope", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return env.result(status, trimmed)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
