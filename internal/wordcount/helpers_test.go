package wordcount_test

import (
	"bytes"
	"errors"
	"io"
	"sync/atomic"
	"time"
)

type memFile struct {
	name   string
	data   []byte
	closed atomic.Bool
}

func newMemFile(name, content string) *memFile {
	return &memFile{name: name, data: []byte(content)}
}

func (f *memFile) Name() string { return f.name }

func (f *memFile) Open() (io.ReadCloser, error) {
	return &trackedReader{Reader: bytes.NewReader(f.data), closed: &f.closed}, nil
}

type trackedReader struct {
	io.Reader
	closed *atomic.Bool
}

func (r *trackedReader) Close() error {
	r.closed.Store(true)
	return nil
}

// brokenFile yields some bytes and then fails mid-stream.
type brokenFile struct {
	name   string
	closed atomic.Bool
}

var errDisk = errors.New("disk on fire")

func (f *brokenFile) Name() string { return f.name }

func (f *brokenFile) Open() (io.ReadCloser, error) {
	r := io.MultiReader(bytes.NewReader([]byte("partial words ")), errReader{errDisk})
	return &trackedReader{Reader: r, closed: &f.closed}, nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

type unopenableFile struct{ name string }

func (f unopenableFile) Name() string { return f.name }

func (f unopenableFile) Open() (io.ReadCloser, error) {
	return nil, errors.New("cannot open")
}

type panickingFile struct{ name string }

func (f panickingFile) Name() string { return f.name }

func (f panickingFile) Open() (io.ReadCloser, error) {
	panic("boom")
}

// endlessFile never reaches EOF; it trickles one word per read.
type endlessFile struct {
	name   string
	delay  time.Duration
	closed atomic.Bool
}

func (f *endlessFile) Name() string { return f.name }

func (f *endlessFile) Open() (io.ReadCloser, error) {
	return &trackedReader{Reader: slowReader{delay: f.delay}, closed: &f.closed}, nil
}

type slowReader struct{ delay time.Duration }

func (r slowReader) Read(p []byte) (int, error) {
	time.Sleep(r.delay)
	return copy(p, "tick "), nil
}
