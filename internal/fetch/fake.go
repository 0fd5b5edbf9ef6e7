package fetch

import (
	"context"
	"errors"
)

// Response is a single scripted fetch result.
type Response struct {
	Body []byte
	Err  error
}

// FakeFetcher is a test double that returns scripted responses.
type FakeFetcher struct {
	// Responses contains scripted results. Each call to Fetch consumes the
	// next one; once exhausted the last one repeats.
	Responses []Response

	// index tracks current position in Responses
	index int

	// Calls counts Fetch invocations.
	Calls int
}

// NewFakeFetcher creates a FakeFetcher with the given responses.
func NewFakeFetcher(responses ...Response) *FakeFetcher {
	return &FakeFetcher{Responses: responses}
}

// Body is a convenience for a successful scripted response.
func Body(s string) Response {
	return Response{Body: []byte(s)}
}

// Fail is a convenience for a failed scripted response.
func Fail(err error) Response {
	return Response{Err: err}
}

// Fetch returns the next scripted response.
func (f *FakeFetcher) Fetch(ctx context.Context) ([]byte, error) {
	f.Calls++

	if len(f.Responses) == 0 {
		return nil, errors.New("no responses configured")
	}

	r := f.Responses[f.index]
	if f.index < len(f.Responses)-1 {
		f.index++
	}
	return r.Body, r.Err
}
