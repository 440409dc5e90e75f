package uplc

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// identityProgram is (program 1.0.0 (lam x x)) flat-encoded: three
// version naturals, lam tag 0010, var tag 0000, de Bruijn index 1,
// trailing filler.
const identityProgram = "010000200101"

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestParseIdentity(t *testing.T) {
	p, err := Parse(decodeHex(t, identityProgram))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := p.VersionString(); got != "1.0.0" {
		t.Errorf("VersionString = %q, want 1.0.0", got)
	}
	if p.bodyStart != 24 {
		t.Errorf("bodyStart = %d bits, want 24", p.bodyStart)
	}
	if p.bodyBits != 16 {
		t.Errorf("bodyBits = %d, want 16", p.bodyBits)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	raw := decodeHex(t, identityProgram)
	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("Encode = %x, want %x", got, raw)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "truncated version", in: "0100"},
		{name: "truncated body", in: "01000020"},
		{name: "trailing bytes", in: "010000200101ff"},
		{name: "bad term tag", in: "010000a00101"}, // tag 1010 is unassigned
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(decodeHex(t, tt.in)); err == nil {
				t.Errorf("Parse(%s) succeeded, want error", tt.in)
			}
		})
	}
}

func TestApplyData(t *testing.T) {
	p, err := Parse(decodeHex(t, identityProgram))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// CBOR for the integer 1. The applied program is
	// [(lam x x) (con data 1)]: apply tag, the old body, const tag, the
	// data type tag list, alignment filler, one single-byte chunk, the
	// chunk terminator and the final filler.
	applied, err := p.ApplyData([]byte{0x01})
	if err != nil {
		t.Fatalf("ApplyData: %v", err)
	}
	want := decodeHex(t, "0100003200"+"14"+"c1"+"010100"+"01")
	got, err := applied.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("applied = %x, want %x", got, want)
	}
	if got := applied.VersionString(); got != "1.0.0" {
		t.Errorf("VersionString = %q, want 1.0.0", got)
	}
}

func TestApplyDataTwice(t *testing.T) {
	p, err := Parse(decodeHex(t, identityProgram))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	once, err := p.ApplyData([]byte{0x01})
	if err != nil {
		t.Fatalf("first ApplyData: %v", err)
	}
	// The spliced program must itself re-parse, so a second parameter
	// can wrap it again.
	twice, err := once.ApplyData([]byte{0x02})
	if err != nil {
		t.Fatalf("second ApplyData: %v", err)
	}
	encoded, err := twice.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	reparsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if reparsed.bodyBits != twice.bodyBits {
		t.Errorf("body extent changed across encode: %d != %d", reparsed.bodyBits, twice.bodyBits)
	}
}

func TestApplyDataRejectsBadCBOR(t *testing.T) {
	p, err := Parse(decodeHex(t, identityProgram))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := p.ApplyData([]byte{0xff, 0xff}); err == nil {
		t.Fatal("expected error for malformed CBOR")
	}
}

func TestDescribeData(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "unsigned int", in: "01", want: "int"},
		{name: "negative int", in: "20", want: "int"},
		{name: "bytes", in: "4101", want: "bytes"},
		{name: "list", in: "80", want: "list"},
		{name: "map", in: "a0", want: "map"},
		{name: "constr", in: "d87980", want: "constr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DescribeData(decodeHex(t, tt.in))
			if err != nil {
				t.Fatalf("DescribeData: %v", err)
			}
			if got != tt.want {
				t.Errorf("DescribeData = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNaturalRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<63 - 1, 1 << 63, ^uint64(0)} {
		w := &bitWriter{}
		w.writeNatural(v)
		w.writeFiller()
		raw, err := w.bytes()
		if err != nil {
			t.Fatalf("bytes: %v", err)
		}
		r := &bitReader{data: raw}
		got, err := r.readNatural()
		if err != nil {
			t.Fatalf("readNatural(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("natural %d round-tripped to %d", v, got)
		}
	}
}

func TestReadNaturalOverflow(t *testing.T) {
	// Ten groups whose last carries more than the one bit still fitting
	// in a machine word.
	data := append(bytes.Repeat([]byte{0x80}, 9), 0x02)
	r := &bitReader{data: data}
	if _, err := r.readNatural(); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestParseBigIntegerConstant(t *testing.T) {
	// Plutus integers are arbitrary precision; a constant far beyond 64
	// bits must still parse as opaque body bits.
	w := &bitWriter{}
	for _, v := range []uint64{1, 0, 0} {
		w.writeNatural(v)
	}
	w.writeBits(tagConst, 4)
	w.writeBit(1)
	w.writeBits(typeInteger, 4)
	w.writeBit(0)
	for i := 0; i < 11; i++ {
		w.writeBits(0xff, 8) // continuation groups
	}
	w.writeBits(0x7f, 8)
	w.writeFiller()
	raw, err := w.bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}

	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	encoded, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(encoded, raw) {
		t.Errorf("Encode = %x, want %x", encoded, raw)
	}
}

func TestBytesUnaligned(t *testing.T) {
	w := &bitWriter{}
	w.writeBits(0, 3)
	if _, err := w.bytes(); err == nil {
		t.Fatal("expected error for an unaligned stream")
	}
}

func TestChunksRoundTrip(t *testing.T) {
	// 300 bytes forces a chunk split at 255.
	data := bytes.Repeat([]byte{0xab}, 300)
	w := &bitWriter{}
	w.writeBits(0, 3) // misalign so the chunk filler has work to do
	w.writeChunks(data)
	w.writeFiller()

	raw, err := w.bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	r := &bitReader{data: raw}
	if _, err := r.readBits(3); err != nil {
		t.Fatal(err)
	}
	if err := r.skipChunks(); err != nil {
		t.Fatalf("skipChunks: %v", err)
	}
	if err := r.readFiller(); err != nil {
		t.Fatalf("final filler: %v", err)
	}
	if r.remaining() != 0 {
		t.Errorf("%d bits left over", r.remaining())
	}
}
