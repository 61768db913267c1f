package server

import (
	"fmt"
	"net/http"

	"github.com/ayusman/mudra/internal/frame"
)

// mjpegBoundary separates parts of the multipart stream.
const mjpegBoundary = "frame"

// StreamHandler serves the frames of one Buffer as MJPEG. Clients share the
// buffer, so any number of viewers costs one encode per frame.
type StreamHandler struct {
	buf *frame.Buffer
}

// NewStreamHandler creates a StreamHandler following buf.
func NewStreamHandler(buf *frame.Buffer) *StreamHandler {
	return &StreamHandler{buf: buf}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	var seq uint64
	if f, ok := h.buf.Latest(); ok && f.Seq > 0 {
		// Start with the frame already held.
		seq = f.Seq - 1
	}

	for {
		f, err := h.buf.Next(r.Context(), seq)
		if err != nil {
			return
		}
		seq = f.Seq

		if err := writePart(w, f.Data); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func writePart(w http.ResponseWriter, data []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
