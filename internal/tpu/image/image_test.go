package image

import "testing"

func TestPackWritesBlobAndMarksBitmap(t *testing.T) {
	img := New()
	data := []byte("hi")
	text := []byte{1, 2, 3, 4}

	if err := Pack(img, data, text); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	blob := img.Bytes()[BitmapBytes:]
	textStart := uint16(blob[0]) | uint16(blob[1])<<8
	if textStart != 2+uint16(len(data)) {
		t.Errorf("text start pointer got: %d expected: %d", textStart, 2+len(data))
	}
	if img.Bytes()[0]&1 == 0 {
		t.Errorf("first sector should be marked used")
	}
}

func TestPackFailsWhenDriveFull(t *testing.T) {
	img := New()
	big := make([]byte, Size)
	if err := Pack(img, nil, big); err == nil {
		t.Errorf("expected a drive-full error")
	}
}
