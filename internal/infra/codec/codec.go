// Package codec encodes ledger values as canonical CBOR, optionally
// compressed with zstd.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

type Codec struct {
	encoder      cbor.EncMode
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// New creates a Codec. It panics only if the static options are invalid.
func New() *Codec {
	encoder, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}

	return &Codec{
		encoder:      encoder,
		compressor:   compressor,
		decompressor: decompressor,
	}
}

func (c *Codec) Encode(value any) ([]byte, error) {
	return c.encoder.Marshal(value)
}

func (c *Codec) Decode(data []byte, value any) error {
	return cbor.Unmarshal(data, value)
}

func (c *Codec) Compress(data []byte) []byte {
	return c.compressor.EncodeAll(data, nil)
}

func (c *Codec) Decompress(compressed []byte) ([]byte, error) {
	return c.decompressor.DecodeAll(compressed, nil)
}

// Marshal encodes and compresses value.
func (c *Codec) Marshal(value any) ([]byte, error) {
	data, err := c.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("could not encode value: %w", err)
	}
	return c.Compress(data), nil
}

// Unmarshal reverses Marshal.
func (c *Codec) Unmarshal(compressed []byte, value any) error {
	data, err := c.Decompress(compressed)
	if err != nil {
		return fmt.Errorf("could not decompress data: %w", err)
	}
	if err := c.Decode(data, value); err != nil {
		return fmt.Errorf("could not decode value: %w", err)
	}
	return nil
}
