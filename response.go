package metrics

import (
	"encoding/json"

	"github.com/pkg/errors"

	"transitview.dev/metrics/fetch"
)

// Response envelope used by the backend: a data document, or a list
// of structured errors whose first message is surfaced verbatim.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []backendError  `json:"errors"`
}

type backendError struct {
	Message string `json:"message"`
}

func decodeEnvelope(body []byte) (*envelope, error) {
	env := &envelope{}
	if err := json.Unmarshal(body, env); err != nil {
		return nil, errors.Wrap(err, "unmarshaling response")
	}
	return env, nil
}

// Walks nested objects along the given path. A missing or non-object
// intermediate yields nil rather than an error.
func extract(data json.RawMessage, path ...string) json.RawMessage {
	current := data
	for _, key := range path {
		if len(current) == 0 {
			return nil
		}
		node := map[string]json.RawMessage{}
		if err := json.Unmarshal(current, &node); err != nil {
			return nil
		}
		current = node[key]
	}
	if string(current) == "null" {
		return nil
	}
	return current
}

// Message for a transport-level failure: a backend-supplied message
// embedded in an error response body when present, else the
// transport error text.
func transportMessage(err error) string {
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) && len(statusErr.Body) > 0 {
		env := &envelope{}
		if json.Unmarshal(statusErr.Body, env) == nil && len(env.Errors) > 0 {
			return env.Errors[0].Message
		}
	}
	return err.Error()
}
