package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxRequestBody caps mutation payloads. Workspace requests are small.
const MaxRequestBody = 1 << 20

// ParseJSON decodes exactly one JSON value from the request body into dest.
// Unknown fields are rejected; every workspace payload has a fixed shape.
// An empty body leaves dest untouched.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if decoder.More() {
		return errors.New("invalid JSON: unexpected data after object")
	}

	return nil
}
