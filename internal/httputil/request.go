package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"wikicore/internal/config"
)

// ParseJSON decodes JSON from the request body into the given destination.
// It limits the request body size to prevent abuse and provides clear error messages.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	// Page bodies are capped separately; leave room for the JSON envelope
	// (requires w for proper 413 response)
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxBodyBytes+64<<10)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
