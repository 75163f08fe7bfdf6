package port_reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeASCII(t *testing.T) {
	d, err := NewDecoder(EncodingASCII)
	require.NoError(t, err)

	text, err := d.Decode([]byte("OK\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "OK\r\n", text)

	_, err = d.Decode([]byte{'o', 'k', 0xe9})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 2, decodeErr.Offset)
	assert.Equal(t, byte(0xe9), decodeErr.Byte)
	assert.Contains(t, decodeErr.Error(), "0xe9")
}

func TestDecodeUTF8SplitSequence(t *testing.T) {
	d, err := NewDecoder(EncodingUTF8)
	require.NoError(t, err)

	euro := []byte("€") // e2 82 ac
	text, err := d.Decode(append([]byte("5"), euro[:2]...))
	require.NoError(t, err)
	assert.Equal(t, "5", text)
	assert.Equal(t, 2, d.Pending())

	text, err = d.Decode(append(euro[2:], '\n'))
	require.NoError(t, err)
	assert.Equal(t, "€\n", text)
	assert.Zero(t, d.Pending())
}

func TestDecodeUTF8Invalid(t *testing.T) {
	d, err := NewDecoder(EncodingUTF8)
	require.NoError(t, err)

	_, err = d.Decode([]byte{'a', 0xff, 'b'})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 1, decodeErr.Offset)
}

func TestDecodeLatin1(t *testing.T) {
	d, err := NewDecoder(EncodingLatin1)
	require.NoError(t, err)

	text, err := d.Decode([]byte{'2', '5', 0xb0, 'C'})
	require.NoError(t, err)
	assert.Equal(t, "25°C", text)
}

func TestNewDecoderUnknown(t *testing.T) {
	_, err := NewDecoder("ebcdic")
	assert.Error(t, err)
}
