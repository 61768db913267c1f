// Package frame holds the most recent encoded output of a video stream so
// that any number of HTTP clients can follow it without touching the camera.
package frame

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// JPEG is one encoded frame.
type JPEG struct {
	Seq  uint64
	Data []byte
	At   time.Time
}

// Buffer keeps the latest JPEG of one stream.
type Buffer struct {
	mu     sync.Mutex
	latest *JPEG
	// updated is closed and replaced on every Store.
	updated chan struct{}
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{updated: make(chan struct{})}
}

// Store publishes data as frame seq. Frames older than the one held are
// dropped. Data is retained; callers must not modify it afterwards.
func (b *Buffer) Store(seq uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.latest != nil && seq < b.latest.Seq {
		return
	}
	b.latest = &JPEG{Seq: seq, Data: data, At: time.Now()}
	close(b.updated)
	b.updated = make(chan struct{})
}

// Latest returns the most recent frame, if any.
func (b *Buffer) Latest() (JPEG, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latest == nil {
		return JPEG{}, false
	}
	return *b.latest, true
}

// Next blocks until a frame newer than seq is available or ctx ends.
func (b *Buffer) Next(ctx context.Context, seq uint64) (JPEG, error) {
	for {
		b.mu.Lock()
		if b.latest != nil && b.latest.Seq > seq {
			f := *b.latest
			b.mu.Unlock()
			return f, nil
		}
		wait := b.updated
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return JPEG{}, ctx.Err()
		case <-wait:
		}
	}
}

// Encode compresses img as JPEG at the given quality (1-100; 0 keeps the
// OpenCV default).
func Encode(img gocv.Mat, quality int) ([]byte, error) {
	var (
		buf *gocv.NativeByteBuffer
		err error
	)
	if quality > 0 {
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	} else {
		buf, err = gocv.IMEncode(gocv.JPEGFileExt, img)
	}
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
