package credential

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const recordFormatVersionCurrent = 1

// ErrCorrupt is returned when a stored credential blob cannot be decoded.
var ErrCorrupt = errors.New("credential record corrupt")

// Encode serializes a [Record] as
// version | u16 len | access | u16 len | refresh | i64 savedAt (big endian).
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil credential record")
	}
	if len(r.AccessToken) > math.MaxUint16 {
		return nil, errors.New("access token too long")
	}
	if len(r.RefreshToken) > math.MaxUint16 {
		return nil, errors.New("refresh token too long")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 2 + len(r.AccessToken) + 2 + len(r.RefreshToken) + 8)

	buf.WriteByte(recordFormatVersionCurrent)

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.AccessToken))); err != nil {
		return nil, err
	}
	buf.WriteString(r.AccessToken)

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.RefreshToken))); err != nil {
		return nil, err
	}
	buf.WriteString(r.RefreshToken)

	if err := binary.Write(&buf, binary.BigEndian, r.SavedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by [Encode]. Any structural problem is reported as
// [ErrCorrupt].
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if version != recordFormatVersionCurrent {
		return nil, fmt.Errorf("%w: unknown version %d", ErrCorrupt, version)
	}

	r := &Record{}

	access, err := readString(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: access token: %v", ErrCorrupt, err)
	}
	r.AccessToken = access

	refresh, err := readString(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token: %v", ErrCorrupt, err)
	}
	r.RefreshToken = refresh

	if err := binary.Read(reader, binary.BigEndian, &r.SavedAt); err != nil {
		return nil, fmt.Errorf("%w: saved at: %v", ErrCorrupt, err)
	}
	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, reader.Len())
	}

	return r, nil
}

func readString(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return "", err
	}
	return string(out), nil
}
