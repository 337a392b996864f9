package export

import (
	"encoding/json"
	"fmt"
	"io"

	"widgetstore/widget"
)

// envelope is the on-the-wire shape of a snapshot export: the ordered
// list of widgets that were ACTIVE as of one snapshot serial.
type envelope struct {
	Widgets []widget.Widget `json:"widgets"`
}

// WriteSnapshot JSON-encodes widgets and writes them through codec to w.
func WriteSnapshot(w io.Writer, widgets []widget.Widget, codec Codec) error {
	data, err := json.Marshal(envelope{Widgets: widgets})
	if err != nil {
		return fmt.Errorf("export: marshal snapshot: %w", err)
	}
	compressed, err := codec.Compress(data)
	if err != nil {
		return fmt.Errorf("export: compress snapshot (%s): %w", codec.Name(), err)
	}
	if _, err := w.Write(compressed); err != nil {
		return fmt.Errorf("export: write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reverses WriteSnapshot, decoding back into a plain
// widget slice. Used by tests to round-trip a dump, not by the store
// itself — a snapshot export is never loaded back automatically.
func ReadSnapshot(r io.Reader, codec Codec) ([]widget.Widget, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("export: read snapshot: %w", err)
	}
	data, err := codec.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("export: decompress snapshot (%s): %w", codec.Name(), err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("export: unmarshal snapshot: %w", err)
	}
	return env.Widgets, nil
}
