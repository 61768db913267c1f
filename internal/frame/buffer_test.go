package frame

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestBuffer_Empty(t *testing.T) {
	b := NewBuffer()
	if _, ok := b.Latest(); ok {
		t.Error("new buffer should be empty")
	}
}

func TestBuffer_StoreKeepsNewest(t *testing.T) {
	b := NewBuffer()
	b.Store(2, []byte("two"))
	b.Store(1, []byte("one"))

	f, ok := b.Latest()
	if !ok || f.Seq != 2 || string(f.Data) != "two" {
		t.Errorf("Latest() = %d %q, want 2 \"two\"", f.Seq, f.Data)
	}
}

func TestBuffer_NextWaitsForNewer(t *testing.T) {
	b := NewBuffer()
	b.Store(1, []byte("one"))

	done := make(chan JPEG)
	go func() {
		f, err := b.Next(context.Background(), 1)
		if err != nil {
			t.Errorf("Next() error = %v", err)
		}
		done <- f
	}()

	select {
	case <-done:
		t.Fatal("Next returned before a newer frame was stored")
	case <-time.After(20 * time.Millisecond):
	}

	b.Store(2, []byte("two"))
	select {
	case f := <-done:
		if f.Seq != 2 {
			t.Errorf("Next() seq = %d, want 2", f.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not wake up")
	}
}

func TestBuffer_NextReturnsImmediately(t *testing.T) {
	b := NewBuffer()
	b.Store(5, []byte("five"))

	f, err := b.Next(context.Background(), 0)
	if err != nil || f.Seq != 5 {
		t.Errorf("Next() = %d, %v; want 5, nil", f.Seq, err)
	}
}

func TestBuffer_NextCancelled(t *testing.T) {
	b := NewBuffer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Next(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestEncode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()

	for _, q := range []int{0, 80} {
		data, err := Encode(img, q)
		if err != nil {
			t.Fatalf("Encode(q=%d) error = %v", q, err)
		}
		if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
			t.Errorf("Encode(q=%d) did not produce a JPEG", q)
		}
	}
}
