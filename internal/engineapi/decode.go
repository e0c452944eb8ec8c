// SPDX-License-Identifier: MPL-2.0

package engineapi

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// decodeContextWindow is how many bytes around an offending offset are
// quoted in a BodyDecodeError.
const decodeContextWindow = 16

// ReadBody buffers the whole response body and closes it.
func ReadBody(resp *RawResponse) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return []byte{}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(KindTransport, "read response body", err)
	}
	return data, nil
}

// DecodeText buffers the body and returns it as a string. Bodies that are not
// valid UTF-8 yield a *BodyDecodeError pointing at the first invalid byte.
func DecodeText(resp *RawResponse) (string, error) {
	data, err := ReadBody(resp)
	if err != nil {
		return "", err
	}
	return bytesToText(data)
}

// DecodeJSON buffers the body, checks it is UTF-8 text, and unmarshals it into
// a value of type T. JSON errors yield a *DeserializationError naming T.
func DecodeJSON[T any](resp *RawResponse) (T, error) {
	var out T
	text, err := DecodeText(resp)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, &DeserializationError{Target: typeName[T](), Err: err}
	}
	return out, nil
}

func bytesToText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	offset := firstInvalidUTF8(data)
	return "", &BodyDecodeError{
		Offset:  offset,
		Context: byteContext(data, offset),
		Err:     fmt.Errorf("invalid UTF-8 sequence"),
	}
}

func firstInvalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

func byteContext(data []byte, offset int) string {
	if offset < 0 {
		return ""
	}
	start := max(offset-decodeContextWindow/2, 0)
	end := min(offset+decodeContextWindow/2, len(data))
	return strconv.Quote(string(data[start:end]))
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
