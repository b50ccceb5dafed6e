package journey

import (
	"encoding/json"
	"io"
	"sync"
)

// JSONLWriter streams events to a writer as one JSON object per line.
// The first write error is retained and all later events are dropped,
// so a broken pipe mid-session never panics the run.
type JSONLWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewJSONLWriter wraps w in a line-oriented event sink.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{enc: json.NewEncoder(w)}
}

func (j *JSONLWriter) OnEvent(e Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	j.err = j.enc.Encode(e)
}

// Err reports the first write error, if any.
func (j *JSONLWriter) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}
