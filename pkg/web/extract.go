package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"
)

// FromBody is implemented by argument types that decode themselves from a
// request body.
type FromBody interface {
	FromBody(ctx context.Context, body io.Reader) error
}

// JSON decodes the body as JSON into Value.
type JSON[T any] struct {
	Value T
}

// FromBody implements FromBody.
func (j *JSON[T]) FromBody(_ context.Context, body io.Reader) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return NewError(KindExtract, "read json body").Wrap(err)
	}
	if err := json.Unmarshal(b, &j.Value); err != nil {
		return NewError(KindExtract, "decode json body").Wrap(err)
	}
	return nil
}

// String is the body read as UTF-8 text.
type String string

// FromBody implements FromBody.
func (t *String) FromBody(_ context.Context, body io.Reader) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return NewError(KindExtract, "read text body").Wrap(err)
	}
	if !utf8.Valid(b) {
		return NewError(KindExtract, "body is not valid utf-8")
	}
	*t = String(b)
	return nil
}

// Bytes is the raw body.
type Bytes []byte

// FromBody implements FromBody.
func (p *Bytes) FromBody(_ context.Context, body io.Reader) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return NewError(KindExtract, "read body").Wrap(err)
	}
	*p = b
	return nil
}

// asExtractError keeps KindExtract errors as they are and classifies
// anything else as an extraction failure.
func asExtractError(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindExtract {
		return err
	}
	return NewError(KindExtract, "extract handler argument").Wrap(err)
}
