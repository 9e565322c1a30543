// Package songform turns loosely typed add/edit song requests into the column
// values written to the songs table.
package songform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

const (
	maxBodyBytes   = 1 << 20
	maxMemoryBytes = 32 << 20
)

// ErrBodyTooLarge is returned when a request body exceeds the accepted size.
var ErrBodyTooLarge = errors.New("request body too large")

// Submission is the raw payload of an add or edit request. It is either a
// FormSubmission or a JSONSubmission.
type Submission interface {
	// Bag returns the canonical key/value view consumed by Normalize and Resolve.
	Bag() map[string]any
	submission()
}

// FormSubmission carries form-encoded values. Only the first value of a
// repeated key is used.
type FormSubmission struct {
	Values url.Values
}

// JSONSubmission carries a decoded JSON object. Numbers are json.Number.
type JSONSubmission struct {
	Object map[string]any
}

func (FormSubmission) submission() {}
func (JSONSubmission) submission() {}

// Bag implements Submission.
func (f FormSubmission) Bag() map[string]any {
	bag := make(map[string]any, len(f.Values))
	for key, values := range f.Values {
		if len(values) == 0 {
			continue
		}
		bag[key] = values[0]
	}
	return bag
}

// Bag implements Submission.
func (j JSONSubmission) Bag() map[string]any {
	bag := make(map[string]any, len(j.Object))
	for key, value := range j.Object {
		bag[key] = value
	}
	return bag
}

// DecodeRequest reads the request body once. A non-empty JSON object wins;
// anything else is parsed as a form, multipart included. Bodies over 1 MiB
// fail with ErrBodyTooLarge.
func DecodeRequest(r *http.Request) (Submission, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		_ = r.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if len(body) > maxBodyBytes {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxBodyBytes)
		}
	}

	if obj, ok := decodeObject(body); ok {
		return JSONSubmission{Object: obj}, nil
	}

	r.Body = io.NopCloser(bytes.NewReader(body))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	return FormSubmission{Values: r.PostForm}, nil
}

func decodeObject(body []byte) (map[string]any, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || len(obj) == 0 {
		return nil, false
	}
	return obj, true
}
