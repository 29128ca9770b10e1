package relay

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/eigerco/sigclaim/pkg/serialization/codec/cbor"
)

// MaxFrameSize bounds a single frame's content.
const MaxFrameSize = 1 << 20

var ErrFrameTooLarge = errors.New("frame too large")

// WriteFrame writes v as cbor prefixed by its size as a little-endian uint32.
func WriteFrame(ctx context.Context, w io.Writer, v any) error {
	content, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if len(content) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(content))
	}

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 4+len(content))
		binary.LittleEndian.PutUint32(buf, uint32(len(content)))
		copy(buf[4:], content)
		if _, err := w.Write(buf); err != nil {
			done <- fmt.Errorf("failed to write frame: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadFrame reads one frame written by WriteFrame and decodes it into v.
func ReadFrame(ctx context.Context, r io.Reader, v any) error {
	done := make(chan error, 1)
	go func() {
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			done <- fmt.Errorf("failed to read frame size: %w", err)
			return
		}
		if size > MaxFrameSize {
			done <- fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
			return
		}
		content := make([]byte, size)
		if _, err := io.ReadFull(r, content); err != nil {
			done <- fmt.Errorf("failed to read frame content: %w", err)
			return
		}
		if err := cbor.Unmarshal(content, v); err != nil {
			done <- fmt.Errorf("failed to decode frame: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
