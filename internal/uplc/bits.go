// Package uplc implements the subset of the Untyped Plutus Core flat
// encoding the toolchain needs: parsing a program envelope, locating the
// extent of its body term, and splicing a data-constant application
// around that body when a blueprint parameter is applied. It is not an
// evaluator or a compiler.
package uplc

import (
	"errors"
	"fmt"
)

// ErrTruncated is returned when the bitstream ends inside a value.
var ErrTruncated = errors.New("uplc: truncated program")

// bitReader reads a flat bitstream most-significant bit first.
type bitReader struct {
	data []byte
	pos  int // in bits
}

func (r *bitReader) remaining() int { return len(r.data)*8 - r.pos }

func (r *bitReader) readBit() (uint64, error) {
	if r.pos >= len(r.data)*8 {
		return 0, ErrTruncated
	}
	b := (r.data[r.pos/8] >> (7 - r.pos%8)) & 1
	r.pos++
	return uint64(b), nil
}

func (r *bitReader) readBits(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | b
	}
	return v, nil
}

// readNatural reads a base-128 variable-length unsigned integer: 8-bit
// groups, low 7 bits of data each, high bit set on all but the last
// group, least significant group first. Only used where the value is
// needed (version fields); values that do not fit 64 bits are an error.
func (r *bitReader) readNatural() (uint64, error) {
	var v uint64
	shift := 0
	for {
		group, err := r.readBits(8)
		if err != nil {
			return 0, err
		}
		bits := group & 0x7f
		if shift > 63 || (shift == 63 && bits > 1) {
			return 0, fmt.Errorf("uplc: natural overflows 64 bits")
		}
		v |= bits << shift
		if group&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

// skipNatural consumes a base-128 natural of any width without
// materializing its value. Plutus integers are arbitrary precision, so
// term skipping must not bound them.
func (r *bitReader) skipNatural() error {
	for {
		group, err := r.readBits(8)
		if err != nil {
			return err
		}
		if group&0x80 == 0 {
			return nil
		}
	}
}

// readFiller consumes zero bits followed by a one bit. The filler is
// used for byte alignment before byte arrays and at the end of a
// program; after the terminating one the reader sits on a byte boundary.
func (r *bitReader) readFiller() error {
	for {
		b, err := r.readBit()
		if err != nil {
			return err
		}
		if b == 1 {
			break
		}
	}
	if r.pos%8 != 0 {
		return fmt.Errorf("uplc: filler does not end on a byte boundary")
	}
	return nil
}

// skipChunks consumes a byte-aligned chunked byte array: a filler, then
// length-prefixed chunks terminated by a zero length byte.
func (r *bitReader) skipChunks() error {
	if err := r.readFiller(); err != nil {
		return err
	}
	for {
		n, err := r.readBits(8)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if r.remaining() < int(n)*8 {
			return ErrTruncated
		}
		r.pos += int(n) * 8
	}
}

// bitWriter builds a flat bitstream most-significant bit first.
type bitWriter struct {
	out  []byte
	cur  byte
	used int // bits used in cur
}

func (w *bitWriter) writeBit(b uint64) {
	w.cur = w.cur<<1 | byte(b&1)
	w.used++
	if w.used == 8 {
		w.out = append(w.out, w.cur)
		w.cur, w.used = 0, 0
	}
}

func (w *bitWriter) writeBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit(v >> i)
	}
}

// writeNatural is the encoding counterpart of readNatural.
func (w *bitWriter) writeNatural(v uint64) {
	for {
		group := v & 0x7f
		v >>= 7
		if v != 0 {
			group |= 0x80
		}
		w.writeBits(group, 8)
		if v == 0 {
			return
		}
	}
}

// writeFiller pads to the next byte boundary with zeros and a final one
// bit. On a boundary it emits a full 0x01 byte; the decoder reads until
// the one either way.
func (w *bitWriter) writeFiller() {
	zeros := 7 - w.used
	if zeros < 0 {
		zeros += 8
	}
	for i := 0; i < zeros; i++ {
		w.writeBit(0)
	}
	w.writeBit(1)
}

// writeChunks emits a byte-aligned chunked byte array.
func (w *bitWriter) writeChunks(data []byte) {
	w.writeFiller()
	for len(data) > 0 {
		n := len(data)
		if n > 255 {
			n = 255
		}
		w.writeBits(uint64(n), 8)
		for _, b := range data[:n] {
			w.writeBits(uint64(b), 8)
		}
		data = data[n:]
	}
	w.writeBits(0, 8)
}

// copyBits appends nbits from src starting at the given bit offset.
func (w *bitWriter) copyBits(src []byte, start, nbits int) {
	for i := start; i < start+nbits; i++ {
		w.writeBit(uint64((src[i/8] >> (7 - i%8)) & 1))
	}
}

func (w *bitWriter) bytes() ([]byte, error) {
	if w.used != 0 {
		return nil, errors.New("uplc: unaligned bitstream; missing trailing filler")
	}
	return w.out, nil
}
