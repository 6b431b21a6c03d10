package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// ResponseBuffer captures what a handler writes, so the caller can inspect
// it and decide whether to pass it on.
type ResponseBuffer interface {
	http.ResponseWriter
	Status() int
	Decode(v any) error
	Flush(w http.ResponseWriter) error
}

type responseBuffer struct {
	code   int
	header http.Header
	buf    bytes.Buffer
}

func NewResponseBuffer() ResponseBuffer {
	return &responseBuffer{header: http.Header{}}
}

func (b *responseBuffer) Header() http.Header {
	return b.header
}

// WriteHeader keeps the first status, like net/http does.
func (b *responseBuffer) WriteHeader(code int) {
	if b.code == 0 {
		b.code = code
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	return b.buf.Write(p)
}

// Status is 0 until the handler writes something.
func (b *responseBuffer) Status() int {
	return b.code
}

// Decode reads the captured body as JSON.
func (b *responseBuffer) Decode(v any) error {
	return json.Unmarshal(b.buf.Bytes(), v)
}

// Flush replays the captured response on w. The buffer is drained.
func (b *responseBuffer) Flush(w http.ResponseWriter) error {
	dst := w.Header()
	for key, values := range b.header {
		dst[key] = values
	}
	if b.code != 0 {
		w.WriteHeader(b.code)
	}
	_, err := b.buf.WriteTo(w)
	return err
}
