package image

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/errors"
)

// On-disk snapshot format:
//
//	magic    "MRIM"            4 bytes
//	version  u16 little-endian
//	reserved u16
//	checksum u64 xxhash64 of the uncompressed payload
//	payload  zstd-compressed, to EOF
//
// Payload: library string, region table, symbol table, all
// little-endian with u16/u32 length prefixes.
const (
	codecMagic   = "MRIM"
	codecVersion = 1
	headerSize   = 16
)

// Encode writes the snapshot to w.
func Encode(w io.Writer, s *Snapshot) error {
	payload := encodePayload(s)

	var header [headerSize]byte
	copy(header[0:4], codecMagic)
	binary.LittleEndian.PutUint16(header[4:6], codecVersion)
	binary.LittleEndian.PutUint64(header[8:16], xxhash.Sum64(payload))
	if _, err := w.Write(header[:]); err != nil {
		return errors.InvalidImage("write header", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return errors.InvalidImage("zstd writer", err)
	}
	if _, err := enc.Write(payload); err != nil {
		enc.Close()
		return errors.InvalidImage("write payload", err)
	}
	if err := enc.Close(); err != nil {
		return errors.InvalidImage("flush payload", err)
	}
	return nil
}

// Decode reads a snapshot from r, verifying the payload checksum.
func Decode(r io.Reader) (*Snapshot, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errors.InvalidImage("short header", err)
	}
	if string(header[0:4]) != codecMagic {
		return nil, errors.InvalidImage("bad magic", nil)
	}
	if v := binary.LittleEndian.Uint16(header[4:6]); v != codecVersion {
		return nil, errors.New(errors.PhaseImage, errors.KindInvalidImage).
			Detail("unsupported snapshot version %d", v).
			Build()
	}
	wantSum := binary.LittleEndian.Uint64(header[8:16])

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.InvalidImage("zstd reader", err)
	}
	defer dec.Close()
	payload, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.InvalidImage("decompress payload", err)
	}
	if got := xxhash.Sum64(payload); got != wantSum {
		return nil, errors.Checksum(wantSum, got)
	}
	return decodePayload(payload)
}

func encodePayload(s *Snapshot) []byte {
	regions := s.Regions()
	symbols := s.Symbols()

	var out []byte
	out = appendString16(out, s.Library)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(regions)))
	for _, r := range regions {
		out = binary.LittleEndian.AppendUint64(out, uint64(r.Base))
		out = binary.LittleEndian.AppendUint64(out, uint64(len(r.Data)))
		out = append(out, r.Data...)
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(symbols)))
	for _, sym := range symbols {
		out = appendString16(out, sym.Name)
		out = binary.LittleEndian.AppendUint64(out, uint64(sym.Addr))
		out = binary.LittleEndian.AppendUint64(out, sym.Size)
	}
	return out
}

func decodePayload(payload []byte) (*Snapshot, error) {
	rd := payloadReader{buf: payload}

	library, err := rd.string16()
	if err != nil {
		return nil, err
	}
	s := New(library)

	numRegions, err := rd.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numRegions; i++ {
		base, err := rd.u64()
		if err != nil {
			return nil, err
		}
		size, err := rd.u64()
		if err != nil {
			return nil, err
		}
		data, err := rd.bytes(size)
		if err != nil {
			return nil, err
		}
		if err := s.AddRegion(metaruntime.Address(base), data); err != nil {
			return nil, err
		}
	}

	numSymbols, err := rd.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numSymbols; i++ {
		name, err := rd.string16()
		if err != nil {
			return nil, err
		}
		addr, err := rd.u64()
		if err != nil {
			return nil, err
		}
		size, err := rd.u64()
		if err != nil {
			return nil, err
		}
		s.AddSymbol(name, metaruntime.Address(addr), size)
	}

	if rd.off != len(rd.buf) {
		return nil, errors.InvalidImage("trailing bytes in payload", nil)
	}
	return s, nil
}

func appendString16(out []byte, s string) []byte {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	out = binary.LittleEndian.AppendUint16(out, uint16(len(s)))
	return append(out, s...)
}

type payloadReader struct {
	buf []byte
	off int
}

func (r *payloadReader) take(n uint64) ([]byte, error) {
	if n > uint64(len(r.buf)-r.off) {
		return nil, errors.InvalidImage("truncated payload", nil)
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

func (r *payloadReader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *payloadReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *payloadReader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *payloadReader) string16() (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	b, err := r.take(uint64(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *payloadReader) bytes(n uint64) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}
