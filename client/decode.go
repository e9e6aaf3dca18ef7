package client

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/adamwoolhether/pollhttp/internal/validate"
)

// Decode reads the whole body, unmarshals it as JSON into dest and, when
// dest is a struct, validates it against its `validate` tags. dest must be
// a pointer. A non-2xx response yields an [*UnexpectedStatusError].
//
// Decode blocks like [Response.ReadAll].
func (r *Response) Decode(ctx context.Context, dest any) error {
	if !r.OK() {
		return &UnexpectedStatusError{
			StatusCode: r.status,
			Err:        ErrUnexpectedStatusCode,
		}
	}

	body, err := r.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	if v := reflect.ValueOf(dest); v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Struct {
		if err := validate.Struct(dest); err != nil {
			return fmt.Errorf("validating body: %w", err)
		}
	}

	return nil
}
