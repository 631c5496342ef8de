// Package responseformat encodes API responses as JSON or MessagePack.
package responseformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgPack = "application/x-msgpack"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WantsMsgPack reports whether the client asked for MessagePack with format=msgpack
func WantsMsgPack(req *http.Request) bool {
	return req.URL.Query().Get("format") == "msgpack"
}

// WriteResponse writes data with the given status code. JSON is the default;
// MessagePack is used when format=msgpack is specified. The body is encoded
// before the status is written, so an encoding failure becomes a 500.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, status int, data any) error {
	var buf bytes.Buffer
	contentType := contentTypeJSON
	var err error
	if WantsMsgPack(req) {
		contentType = contentTypeMsgPack
		err = f.encodeMsgPack(&buf, data)
	} else {
		err = json.NewEncoder(&buf).Encode(data)
	}
	if err != nil {
		http.Error(w, "error encoding response", http.StatusInternalServerError)
		return fmt.Errorf("encoding response: %w", err)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, err = w.Write(buf.Bytes())
	return err
}

// DecodeRequest decodes a request body according to its Content-Type.
// Bodies without a Content-Type are treated as JSON.
func (f *Formatter) DecodeRequest(req *http.Request, v any) error {
	ct := req.Header.Get("Content-Type")
	if ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("invalid content type %q: %w", ct, err)
		}
		ct = mediaType
	}

	switch ct {
	case "", contentTypeJSON:
		dec := json.NewDecoder(req.Body)
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case contentTypeMsgPack:
		dec := msgpack.NewDecoder(req.Body)
		dec.SetCustomStructTag("json")
		return dec.Decode(v)
	default:
		return fmt.Errorf("unsupported content type %q", ct)
	}
}

func (f *Formatter) encodeMsgPack(w io.Writer, data any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Fall back to json tags for MessagePack
	return encoder.Encode(data)
}
