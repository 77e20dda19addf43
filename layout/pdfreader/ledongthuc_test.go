package pdfreader

import (
	"bytes"
	"image/png"
	"testing"
)

func TestRawPixelsToPNGDeviceRGB(t *testing.T) {
	data := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 10, 10, 10}
	out, err := rawPixelsToPNG(data, 2, 2, "DeviceRGB", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding produced PNG: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("got bounds %v, want 2x2", img.Bounds())
	}
}

func TestRawPixelsToPNGDeviceGray(t *testing.T) {
	data := []byte{0, 128, 255, 64}
	out, err := rawPixelsToPNG(data, 2, 2, "DeviceGray", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty PNG output")
	}
}

func TestRawPixelsToPNGDeviceCMYK(t *testing.T) {
	data := make([]byte, 2*2*4)
	out, err := rawPixelsToPNG(data, 2, 2, "DeviceCMYK", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty PNG output")
	}
}

func TestRawPixelsToPNGInsufficientData(t *testing.T) {
	_, err := rawPixelsToPNG([]byte{1, 2, 3}, 10, 10, "DeviceRGB", 8)
	if err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestRawPixelsToPNGUnsupportedColorSpace(t *testing.T) {
	_, err := rawPixelsToPNG([]byte{1, 2, 3}, 1, 1, "Indexed", 8)
	if err == nil {
		t.Fatal("expected error for unsupported color space")
	}
}

func TestRawPixelsToPNGDefaultsBitsPerComponent(t *testing.T) {
	data := []byte{1, 2, 3}
	if _, err := rawPixelsToPNG(data, 1, 1, "DeviceRGB", 0); err != nil {
		t.Fatalf("unexpected error with zero bitsPerComponent: %v", err)
	}
}
