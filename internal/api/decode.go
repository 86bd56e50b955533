package api

import (
	"encoding/json"
	"fmt"
)

// envelope is the wrapper shape some backend endpoints use. Data is kept raw
// so the payload can be re-decoded into the caller's type.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Decode unmarshals a backend payload into out, tolerating the response
// shapes the backend actually emits: a raw payload, `{data: ...}`, or the
// full `{success, message, data}` wrapper. Shapes are tried in that
// discriminated order; when none matches, Decode fails loudly instead of
// guessing.
func Decode(body []byte, out any) error {
	if len(body) == 0 {
		return fmt.Errorf("decode backend payload: empty body")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && (env.Data != nil || env.Success != nil) {
		if env.Success != nil && !*env.Success {
			if env.Message != "" {
				return fmt.Errorf("backend reported failure: %s", env.Message)
			}
			return fmt.Errorf("backend reported failure")
		}
		if env.Data == nil {
			// success envelope with no payload; nothing to decode
			return nil
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode enveloped payload: %w", err)
		}
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode backend payload: body matches neither the raw nor the enveloped shape: %w", err)
	}
	return nil
}

// DecodeResponse is the common unwrap step after a successful call.
func DecodeResponse(resp *Response, out any) error {
	if resp == nil || len(resp.Body) == 0 {
		return fmt.Errorf("decode backend payload: empty response")
	}
	return Decode(resp.Body, out)
}
