// SPDX-License-Identifier: MPL-2.0

package engineapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
)

// classifiedStatuses are the engine's documented failure codes that carry a
// {"message": ...} body. Other statuses are not examined.
var classifiedStatuses = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusInternalServerError,
}

// ErrorEnvelope is the body shape of a classified failure response.
type ErrorEnvelope struct {
	Message *string `json:"message"`
}

// IsClassifiedStatus reports whether code is in the classified failure set.
func IsClassifiedStatus(code int) bool {
	return slices.Contains(classifiedStatuses, code)
}

// ClassifiedStatuses returns the classified failure set in ascending order.
func ClassifiedStatuses() []int {
	return slices.Clone(classifiedStatuses)
}

// Translate classifies resp. Responses with a classified status are consumed
// and turned into an *APIError carrying the status and the envelope message;
// an envelope that cannot be decoded yields a *BodyDecodeError that still
// records the status. Every other response is returned unchanged and unread.
func Translate(resp *RawResponse) (*RawResponse, error) {
	if !IsClassifiedStatus(resp.StatusCode) {
		return resp, nil
	}

	data, err := ReadBody(resp)
	if err != nil {
		return nil, err
	}

	text, err := bytesToText(data)
	if err != nil {
		var bodyErr *BodyDecodeError
		if errors.As(err, &bodyErr) {
			bodyErr.StatusCode = resp.StatusCode
		}
		return nil, err
	}

	var env ErrorEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, &BodyDecodeError{StatusCode: resp.StatusCode, Offset: -1, Err: err}
	}
	if env.Message == nil {
		return nil, &BodyDecodeError{StatusCode: resp.StatusCode, Offset: -1, Err: errors.New(`error envelope has no "message" field`)}
	}

	return nil, &APIError{StatusCode: resp.StatusCode, Message: *env.Message}
}
