package export

import "github.com/klauspost/compress/zstd"

// Zstd compresses snapshot bytes with github.com/klauspost/compress/zstd
// — the teacher's substitute for zstd support, since the standard
// library has none. The encoder/decoder are created lazily and reused
// across calls.
type Zstd struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (*Zstd) Name() string { return "zstd" }

func (z *Zstd) Compress(data []byte) ([]byte, error) {
	if z.encoder == nil {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		z.encoder = enc
	}
	return z.encoder.EncodeAll(data, nil), nil
}

func (z *Zstd) Decompress(data []byte) ([]byte, error) {
	if z.decoder == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		z.decoder = dec
	}
	return z.decoder.DecodeAll(data, nil)
}
