// Package formats provides readers for map file formats.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// LegacyMagic opens every legacy map stream.
const LegacyMagic = "rpg:map"

// LegacyVersion is the only legacy version that can be read.
const LegacyVersion int32 = 2

// Limits applied while reading untrusted streams.
const (
	MaxLegacyDimension = 4096
	maxStringLength    = 1 << 16
	initialCells       = 1 << 12
)

// Map format errors.
var (
	ErrFormat          = errors.New("invalid map format")
	ErrVersionMismatch = errors.New("map version mismatch")
	ErrTruncated       = errors.New("truncated map data")
)

// FormatError reports a stream that is not a legacy map.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrFormat, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFormat) match.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// VersionMismatchError reports a legacy stream of an unsupported version.
type VersionMismatchError struct {
	Got  int32
	Want int32
}

// Newer reports whether the stream was written by a newer version.
func (e *VersionMismatchError) Newer() bool {
	return e.Got > e.Want
}

func (e *VersionMismatchError) Error() string {
	side := "older"
	if e.Newer() {
		side = "newer"
	}
	return fmt.Sprintf("%s: stream version %d is %s than supported version %d", ErrVersionMismatch, e.Got, side, e.Want)
}

// Is makes errors.Is(err, ErrVersionMismatch) match.
func (e *VersionMismatchError) Is(target error) bool {
	return target == ErrVersionMismatch
}

// Legacy cell layer slots, in stream order.
const (
	LegacyTerrain = iota
	LegacyDecoration
	LegacyCreature
	LegacyControl
)

// LegacyCell holds the four raw ids of a cell in stream order: terrain,
// decoration, creature, control.
type LegacyCell [4]int32

// ID returns the significant low byte of a slot.
func (c LegacyCell) ID(slot int) uint8 {
	return uint8(c[slot] & 0xff)
}

// LegacyMap is a decoded legacy map stream.
type LegacyMap struct {
	Version     int32
	Name        string
	Environment uint8
	Weather     uint8
	Width       int32
	Height      int32
	Cells       []LegacyCell // row-major, Width*Height entries
}

// Cell returns the cell at (x, y), or nil when out of bounds.
func (m *LegacyMap) Cell(x, y int) *LegacyCell {
	if x < 0 || y < 0 || x >= int(m.Width) || y >= int(m.Height) {
		return nil
	}
	return &m.Cells[y*int(m.Width)+x]
}

// ParseLegacyMap parses a legacy map from raw bytes.
func ParseLegacyMap(data []byte) (*LegacyMap, error) {
	return ReadLegacyMap(bytes.NewReader(data))
}

// ParseLegacyMapFile parses a legacy map file from disk.
func ParseLegacyMapFile(path string) (*LegacyMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening legacy map: %w", err)
	}
	defer f.Close()
	return ReadLegacyMap(bufio.NewReader(f))
}

// byteReader is what string prefixes are decoded from.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// ReadLegacyMap decodes a legacy map stream. Strings are UTF-8 bytes
// prefixed with their length as a 7-bit encoded unsigned integer; all
// other values are little endian.
func ReadLegacyMap(r io.Reader) (*LegacyMap, error) {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	magic, err := readString(br)
	if err != nil {
		return nil, &FormatError{Reason: "reading magic", Err: err}
	}
	if magic != LegacyMagic {
		return nil, &FormatError{Reason: fmt.Sprintf("bad magic %q", magic)}
	}

	m := &LegacyMap{}
	if err := binary.Read(br, binary.LittleEndian, &m.Version); err != nil {
		return nil, &FormatError{Reason: "reading version", Err: truncated(err)}
	}
	if m.Version != LegacyVersion {
		return nil, &VersionMismatchError{Got: m.Version, Want: LegacyVersion}
	}

	if m.Name, err = readString(br); err != nil {
		return nil, &FormatError{Reason: "reading name", Err: err}
	}

	var header struct {
		Environment uint8
		Weather     uint8
		Width       int32
		Height      int32
	}
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, &FormatError{Reason: "reading header", Err: truncated(err)}
	}
	m.Environment = header.Environment
	m.Weather = header.Weather
	m.Width = header.Width
	m.Height = header.Height

	if m.Width <= 0 || m.Height <= 0 || m.Width > MaxLegacyDimension || m.Height > MaxLegacyDimension {
		return nil, &FormatError{Reason: fmt.Sprintf("invalid dimensions %dx%d", m.Width, m.Height)}
	}

	// Cells grow as rows arrive so a lying header cannot force a large
	// allocation up front.
	total := int(m.Width) * int(m.Height)
	m.Cells = make([]LegacyCell, 0, min(total, initialCells))
	row := make([]LegacyCell, m.Width)
	for y := 0; y < int(m.Height); y++ {
		if err := binary.Read(br, binary.LittleEndian, row); err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("reading row %d", y), Err: truncated(err)}
		}
		m.Cells = append(m.Cells, row...)
	}

	return m, nil
}

// readString reads a 7-bit length prefixed UTF-8 string.
func readString(r byteReader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", truncated(err)
	}
	if n > maxStringLength {
		return "", fmt.Errorf("string length %d exceeds %d", n, maxStringLength)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", truncated(err)
	}
	return string(buf), nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

// WriteLegacyMap encodes m in the legacy layout. It exists to produce
// fixtures; maps are never saved in this format.
func WriteLegacyMap(w io.Writer, m *LegacyMap) error {
	if len(m.Cells) != int(m.Width)*int(m.Height) {
		return fmt.Errorf("cell count %d does not match %dx%d", len(m.Cells), m.Width, m.Height)
	}

	le := binary.LittleEndian
	buf := make([]byte, 0, 64+len(m.Name)+len(m.Cells)*16)
	buf = appendString(buf, LegacyMagic)
	buf = le.AppendUint32(buf, uint32(m.Version))
	buf = appendString(buf, m.Name)
	buf = append(buf, m.Environment, m.Weather)
	buf = le.AppendUint32(buf, uint32(m.Width))
	buf = le.AppendUint32(buf, uint32(m.Height))
	for _, c := range m.Cells {
		for _, id := range c {
			buf = le.AppendUint32(buf, uint32(id))
		}
	}

	_, err := w.Write(buf)
	return err
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}
