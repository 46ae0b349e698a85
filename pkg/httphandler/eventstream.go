package httphandler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// eventStream writes server-sent events. Keep-alives are comment lines, so
// the only event names a client sees are the ones passed to Write.
type eventStream struct {
	mu   sync.Mutex
	w    http.ResponseWriter
	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
	err  error
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	defaultKeepAlive = 10 * time.Second
)

var (
	strPing = []byte(": ping\n\n")
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// newEventStream writes the stream headers and a 200 status, then sends a
// keep-alive comment every interval until Close. A zero interval disables
// keep-alives.
func newEventStream(w http.ResponseWriter, interval time.Duration) *eventStream {
	s := &eventStream{w: w, stop: make(chan struct{})}

	w.Header().Set(types.ContentTypeHeader, types.ContentTypeTextStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	s.flush()

	if interval > 0 {
		s.wg.Add(1)
		go s.keepalive(interval)
	}
	return s
}

// Close stops keep-alives and returns the first write error. Events may
// still be written after Close.
func (s *eventStream) Close() error {
	s.once.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Write sends one event with data encoded as JSON on a single data line
func (s *eventStream) Write(name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame := make([]byte, 0, len(name)+len(payload)+16)
	frame = append(frame, "event: "...)
	frame = append(frame, name...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(frame)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (s *eventStream) keepalive(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.write(strPing)
			s.mu.Unlock()
		}
	}
}

// write sends a frame and flushes it. Once a write fails, the stream is
// broken and nothing more is sent.
func (s *eventStream) write(frame []byte) error {
	if s.err != nil {
		return s.err
	}
	if _, err := s.w.Write(frame); err != nil {
		s.err = err
		return err
	}
	s.flush()
	return nil
}

func (s *eventStream) flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
