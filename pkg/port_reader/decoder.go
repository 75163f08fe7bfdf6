package port_reader

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

type DecodeError struct {
	Encoding Encoding
	Offset   int
	Byte     byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode byte 0x%02x at offset %d as %s", e.Byte, e.Offset, e.Encoding)
}

func NewDecoder(encoding Encoding) (*Decoder, error) {
	d := &Decoder{encoding: encoding}
	switch encoding {
	case EncodingASCII, EncodingUTF8:
	case EncodingLatin1:
		d.latin1 = charmap.ISO8859_1.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	return d, nil
}

// Decode converts one read worth of bytes.
func (d *Decoder) Decode(data []byte) (string, error) {
	switch d.encoding {
	case EncodingASCII:
		for i, b := range data {
			if b >= utf8.RuneSelf {
				return "", &DecodeError{Encoding: d.encoding, Offset: i, Byte: b}
			}
		}
		return string(data), nil
	case EncodingLatin1:
		text, err := d.latin1.Bytes(data)
		if err != nil {
			return "", err
		}
		return string(text), nil
	default:
		return d.decodeUTF8(data)
	}
}

// Multi-byte sequences may be split over two reads, the tail is kept for the next call.
func (d *Decoder) decodeUTF8(data []byte) (string, error) {
	buf := append(d.pending, data...)
	d.pending = nil

	i := 0
	for i < len(buf) {
		if buf[i] < utf8.RuneSelf {
			i++
			continue
		}
		if !utf8.FullRune(buf[i:]) {
			d.pending = append([]byte(nil), buf[i:]...)
			break
		}
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size == 1 {
			return "", &DecodeError{Encoding: d.encoding, Offset: i, Byte: buf[i]}
		}
		i += size
	}
	return string(buf[:i]), nil
}

// Pending reports how many bytes wait for the rest of their sequence.
func (d *Decoder) Pending() int {
	return len(d.pending)
}
