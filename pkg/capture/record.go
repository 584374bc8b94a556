package capture

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
	"strings"
)

// Sample is one captured edge interval.
type Sample struct {
	Ticks    uint32
	Overflow bool
}

// Binary record layout: 4 bytes little-endian, bit 31 flags a hardware
// overflow, bits 30..0 hold the interval.
const (
	RecordSize = 4
	// MaxTicks is the longest interval a record can carry.
	MaxTicks = 1<<31 - 1

	recordOverflowBit = 1 << 31
)

// String formats the sample as a text capture line.
func (s Sample) String() string {
	str := strconv.FormatUint(uint64(s.Ticks), 10)
	if s.Overflow {
		str += "!"
	}
	return str
}

// AppendRecord appends the binary record of s to b.
func (s Sample) AppendRecord(b []byte) []byte {
	v := s.Ticks & MaxTicks
	if s.Overflow {
		v |= recordOverflowBit
	}
	var rec [RecordSize]byte
	binary.LittleEndian.PutUint32(rec[:], v)
	return append(b, rec[:]...)
}

// ParseRecord decodes a binary record.
func ParseRecord(rec []byte) (Sample, error) {
	if len(rec) < RecordSize {
		return Sample{}, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(rec)
	s := Sample{Ticks: v & MaxTicks, Overflow: v&recordOverflowBit != 0}
	if s.Ticks == 0 {
		return s, ErrBadRecord
	}
	return s, nil
}

// ParseText parses one text capture line: decimal ticks, optionally
// followed by "!" for an overflow.
func ParseText(line string) (s Sample, err error) {
	line = strings.TrimSpace(line)
	if strings.HasSuffix(line, "!") {
		s.Overflow = true
		line = strings.TrimSpace(line[:len(line)-1])
	}
	v, err := strconv.ParseUint(line, 10, 31)
	if err != nil {
		return s, err
	}
	if v == 0 {
		return s, ErrBadRecord
	}
	s.Ticks = uint32(v)
	return s, nil
}

// SampleReader reads captured samples. It returns io.EOF at the end of
// the capture.
type SampleReader interface {
	ReadSample() (Sample, error)
}

// Format selects the record encoding of a capture.
type Format int

const (
	// FormatBinary is the 4-byte record stream.
	FormatBinary Format = iota
	// FormatText is one sample per line, '#' starts a comment.
	FormatText
)

// String implements fmt.Stringer.
func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "binary"
}

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "binary", "bin", "":
		return FormatBinary, nil
	case "text", "txt":
		return FormatText, nil
	}
	return FormatBinary, ErrUnknownFormat
}

// NewReader creates a SampleReader decoding r in format f.
func NewReader(r io.Reader, f Format) SampleReader {
	if f == FormatText {
		return NewTextReader(r)
	}
	return NewBinaryReader(r)
}

// BinaryReader reads binary records. The overflow flag of a dropped
// record is carried into the next valid sample.
type BinaryReader struct {
	r        io.Reader
	rec      [RecordSize]byte
	overflow bool
}

// NewBinaryReader creates a BinaryReader.
func NewBinaryReader(r io.Reader) *BinaryReader {
	return &BinaryReader{r: r}
}

// ReadSample implements SampleReader.
func (r *BinaryReader) ReadSample() (Sample, error) {
	if _, err := io.ReadFull(r.r, r.rec[:]); err != nil {
		return Sample{}, err
	}
	s, err := ParseRecord(r.rec[:])
	return carryOverflow(&r.overflow, s, err)
}

// carryOverflow keeps the overflow flag of a rejected sample pending
// until a valid one arrives, so the decoder still counts it.
func carryOverflow(pending *bool, s Sample, err error) (Sample, error) {
	if err != nil {
		*pending = *pending || s.Overflow
		return s, err
	}
	s.Overflow = s.Overflow || *pending
	*pending = false
	return s, nil
}

// TextReader reads text captures. Like BinaryReader it carries the
// overflow flag of a rejected line into the next sample.
type TextReader struct {
	scanner  *bufio.Scanner
	line     int
	overflow bool
}

// NewTextReader creates a TextReader.
func NewTextReader(r io.Reader) *TextReader {
	return &TextReader{scanner: bufio.NewScanner(r)}
}

// ReadSample implements SampleReader.
func (r *TextReader) ReadSample() (Sample, error) {
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		s, err := ParseText(text)
		s, err = carryOverflow(&r.overflow, s, err)
		if err != nil {
			return s, &RecordError{Line: r.line, Text: text, Err: err}
		}
		return s, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Sample{}, err
	}
	return Sample{}, io.EOF
}

// ReadAll reads samples until io.EOF.
func ReadAll(r SampleReader) ([]Sample, error) {
	var samples []Sample
	for {
		s, err := r.ReadSample()
		if err == io.EOF {
			return samples, nil
		}
		if err != nil {
			return samples, err
		}
		samples = append(samples, s)
	}
}
