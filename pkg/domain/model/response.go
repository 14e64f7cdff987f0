package model

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
)

// BodyKind tells how a successful response body was interpreted
type BodyKind int

const (
	// BodyEmpty is used for 204 No Content and zero-length bodies
	BodyEmpty BodyKind = iota
	// BodyJSON is used when the content type is JSON
	BodyJSON
	// BodyText is used for any other content type
	BodyText
)

func (k BodyKind) String() string {
	switch k {
	case BodyEmpty:
		return "empty"
	case BodyJSON:
		return "json"
	case BodyText:
		return "text"
	default:
		return "unknown"
	}
}

// Body is the parsed body of a successful API response
type Body struct {
	Kind BodyKind
	JSON json.RawMessage // Set when Kind is BodyJSON
	Text string          // Set when Kind is BodyText
}

// Decode unmarshals a JSON body into v
func (b Body) Decode(v any) error {
	if b.Kind != BodyJSON {
		return goerr.New("response body is not JSON", goerr.V("kind", b.Kind.String()))
	}
	if err := json.Unmarshal(b.JSON, v); err != nil {
		return goerr.Wrap(err, "failed to decode JSON response body")
	}
	return nil
}

// Response is the outcome of a successful orchestrated request
type Response struct {
	StatusCode int
	Body       Body
	Attempts   int // Number of HTTP attempts it took, starting at 1
}
