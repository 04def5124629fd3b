package req

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxBodySize caps request bodies, every payload here is a handful of fields
const maxBodySize = 1 << 20

// Decode reads a JSON body into T. Unknown fields and trailing data are rejected.
func Decode[T any](body io.ReadCloser) (T, error) {
	var payload T
	if body == nil {
		return payload, errors.New("empty body")
	}
	defer body.Close()

	dec := json.NewDecoder(io.LimitReader(body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return payload, fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return payload, errors.New("decode body: unexpected trailing data")
	}

	return payload, nil
}
