package wordcount

import (
	"context"
	"io"
)

// File is one uploaded stream. Open is called exactly once per aggregation
// and the returned reader is always closed.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// readFile reads f to completion. A positive maxBytes rejects files larger
// than the limit with ErrFileTooLarge.
func readFile(ctx context.Context, f File, maxBytes int64) (string, int64, error) {
	rc, err := f.Open()
	if err != nil {
		return "", 0, err
	}
	defer rc.Close()

	var r io.Reader = &contextReader{ctx: ctx, r: rc}
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}

	data, err := io.ReadAll(r)
	n := int64(len(data))
	if err != nil {
		return "", n, err
	}

	if maxBytes > 0 && n > maxBytes {
		return "", n, ErrFileTooLarge
	}

	return string(data), n, nil
}

// contextReader stops a read between chunks once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
