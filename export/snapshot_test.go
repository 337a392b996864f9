package export

import (
	"bytes"
	"testing"

	"widgetstore/widget"
)

func TestWriteAndReadSnapshotRoundTrip(t *testing.T) {
	widgets := []widget.Widget{
		{ID: 0, X: 1, Y: 2, Z: 0, Width: 3, Height: 4},
		{ID: 1, X: 5, Y: 6, Z: 1, Width: 7, Height: 8},
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, widgets, Snappy{}); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	got, err := ReadSnapshot(&buf, Snappy{})
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(got) != len(widgets) {
		t.Fatalf("got %d widgets, want %d", len(got), len(widgets))
	}
	for i := range widgets {
		if got[i] != widgets[i] {
			t.Fatalf("widget %d = %+v, want %+v", i, got[i], widgets[i])
		}
	}
}

func TestReadSnapshotEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, nil, LZ4{}); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := ReadSnapshot(&buf, LZ4{})
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d widgets, want 0", len(got))
	}
}
