package httpclient

import (
	"errors"
	"fmt"
	"io"
)

// BodyTooLargeError reports that a response body exceeded the read limit.
type BodyTooLargeError struct {
	Limit int64
}

func (e BodyTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// IsBodyTooLarge reports whether the error indicates a body limit violation.
func IsBodyTooLarge(err error) bool {
	var limitErr BodyTooLargeError
	return errors.As(err, &limitErr)
}

// ReadBody reads the response body up to limit bytes. A limit <= 0 reads the
// whole body. The remote store is not trusted to keep payloads small.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, BodyTooLargeError{Limit: limit}
	}
	return data, nil
}

// Drain consumes and discards up to limit bytes of the body so the underlying
// connection can be reused.
func Drain(r io.Reader, limit int64) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, limit))
}
