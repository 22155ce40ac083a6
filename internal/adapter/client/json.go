package client

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/json-iterator/go/extra"

	"github.com/freytube/freytube/internal/core/domain"
)

// Community instances run many versions of the same API, so numbers turn up
// as strings and vice versa. Fuzzy decoders coerce those instead of failing
// the whole response.
func init() {
	extra.RegisterFuzzyDecoders()
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeError reports a response body that could not be decoded. It points at
// a request/schema problem rather than a sick instance.
type DecodeError struct {
	Err      error
	Provider domain.Provider
	URL      string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response from %s: %v", e.Provider, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
