package export

import "github.com/golang/snappy"

// Snappy compresses snapshot bytes with github.com/golang/snappy.
type Snappy struct{}

func (Snappy) Name() string { return "snappy" }

func (Snappy) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (Snappy) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}
