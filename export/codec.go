// Package export provides the store's snapshot-export debug hook: a
// point-in-time dump of every ACTIVE widget, JSON-encoded and run
// through a pluggable compression codec. It exists purely for
// inspection and test fixtures — nothing in the store reads a snapshot
// back in automatically, so this does not make the store durable.
//
// The codec shape mirrors the teacher's compression.CompressionAlgorithm
// (advanced/compression/engine.go): Compress/Decompress/Name. Each of
// the teacher's three compression dependencies gets one codec here.
package export

import "fmt"

// Codec compresses and decompresses snapshot bytes.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// ByName resolves a codec by its Name(), as configured via
// config.Options.SnapshotExport.Codec.
func ByName(name string) (Codec, error) {
	switch name {
	case "snappy":
		return Snappy{}, nil
	case "lz4":
		return LZ4{}, nil
	case "zstd":
		return &Zstd{}, nil
	default:
		return nil, fmt.Errorf("export: unknown codec %q", name)
	}
}
