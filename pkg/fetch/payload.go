package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/myastroboard/astroboard/pkg/errors"
)

// Kind tags a decoded response envelope.
type Kind int

const (
	// KindSuccess is any payload that is neither pending nor an error.
	KindSuccess Kind = iota
	// KindPending marks {"status": "pending"}: the server cache for the
	// resource has not finished initializing.
	KindPending
	// KindError marks a payload carrying an "error" field or
	// {"status": "error"}.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindPending:
		return "pending"
	case KindError:
		return "error"
	default:
		return "success"
	}
}

// Status values of the conventional response envelope.
const (
	StatusSuccess = "success"
	StatusPending = "pending"
	StatusError   = "error"
)

// Payload is a decoded JSON response body tagged as success, pending or
// error. The body is classified once when the payload is parsed so call
// sites switch on [Payload.Kind] instead of re-inspecting fields.
type Payload struct {
	kind    Kind
	status  string
	message string
	errText string
	raw     json.RawMessage
}

// ParsePayload validates data as JSON and classifies it.
// Non-object JSON values (arrays, strings, numbers) are successes.
func ParsePayload(data []byte) (*Payload, error) {
	p, err := parsePayload(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "invalid JSON response")
	}
	return p, nil
}

func parsePayload(data []byte) (*Payload, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("malformed JSON")
	}

	p := &Payload{kind: KindSuccess, raw: append(json.RawMessage(nil), data...)}
	if data[0] != '{' {
		return p, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	p.status = textField(fields["status"])
	p.message = textField(fields["message"])
	p.errText = textField(fields["error"])

	switch {
	case p.status == StatusPending:
		p.kind = KindPending
	case p.errText != "" || p.status == StatusError:
		p.kind = KindError
	}
	return p, nil
}

// MustParsePayload is like ParsePayload but panics on malformed input.
// Intended for tests and static fixtures.
func MustParsePayload(data string) *Payload {
	p, err := ParsePayload([]byte(data))
	if err != nil {
		panic(err)
	}
	return p
}

// textField renders an envelope field as text. Strings are unquoted,
// null is empty, anything else keeps its JSON form.
func textField(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Kind returns the envelope tag.
func (p *Payload) Kind() Kind { return p.kind }

// IsPending reports whether the payload is a pending-cache marker.
// A nil payload is not pending.
func (p *Payload) IsPending() bool { return p != nil && p.kind == KindPending }

// IsError reports whether the payload carries an application error.
func (p *Payload) IsError() bool { return p != nil && p.kind == KindError }

// Status returns the envelope "status" field, or "".
func (p *Payload) Status() string { return p.status }

// Message returns the envelope "message" field, or "".
func (p *Payload) Message() string { return p.message }

// ErrorText returns the application error text. For {"status":"error"}
// payloads without an "error" field it falls back to the message.
func (p *Payload) ErrorText() string {
	if p.errText != "" {
		return p.errText
	}
	if p.kind == KindError {
		if p.message != "" {
			return p.message
		}
		return "unknown error"
	}
	return ""
}

// Raw returns the JSON body exactly as received (whitespace-trimmed).
func (p *Payload) Raw() json.RawMessage { return p.raw }

// Decode unmarshals the raw body into v regardless of kind.
func (p *Payload) Decode(v any) error {
	if err := json.Unmarshal(p.raw, v); err != nil {
		return errors.Wrap(errors.ErrCodeDecode, err, "decode %s payload", p.kind)
	}
	return nil
}

// Value decodes the body into generic Go values (maps, slices, float64).
func (p *Payload) Value() (any, error) {
	var v any
	err := p.Decode(&v)
	return v, err
}

// MarshalJSON returns the raw body so payloads re-encode unchanged.
func (p *Payload) MarshalJSON() ([]byte, error) {
	if p == nil || len(p.raw) == 0 {
		return []byte("null"), nil
	}
	return p.raw, nil
}

// String summarizes the payload for logs.
func (p *Payload) String() string {
	switch p.kind {
	case KindPending:
		return fmt.Sprintf("pending(%s)", p.message)
	case KindError:
		return fmt.Sprintf("error(%s)", p.ErrorText())
	default:
		s := string(p.raw)
		if len(s) > 80 {
			s = s[:77] + "..."
		}
		return strings.TrimSpace(s)
	}
}

// Decode converts a success payload into T.
// Pending payloads yield a PENDING error; error payloads yield an
// HTTP_ERROR carrying the server's error text.
func Decode[T any](p *Payload) (T, error) {
	var v T
	switch {
	case p == nil:
		return v, errors.New(errors.ErrCodeDecode, "no payload")
	case p.kind == KindPending:
		msg := p.message
		if msg == "" {
			msg = "resource is not ready yet"
		}
		return v, errors.New(errors.ErrCodePending, "%s", msg)
	case p.kind == KindError:
		return v, errors.New(errors.ErrCodeHTTP, "%s", p.ErrorText())
	}
	err := p.Decode(&v)
	return v, err
}
