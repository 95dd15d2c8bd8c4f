package texture

import (
	"image"
	"image/color"
	"testing"
)

// makeTGAHeader builds an 18 byte TGA header.
func makeTGAHeader(imageType byte, width, height int, bpp byte, descriptor byte) []byte {
	h := make([]byte, tgaHeaderSize)
	h[2] = imageType
	h[12] = byte(width)
	h[13] = byte(width >> 8)
	h[14] = byte(height)
	h[15] = byte(height >> 8)
	h[16] = bpp
	h[17] = descriptor
	return h
}

func rgbaAt(t *testing.T, img image.Image, x, y int) color.RGBA {
	t.Helper()
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestDecodeTGA_Uncompressed(t *testing.T) {
	// 2x2, 24 bpp, bottom-up: first row in the file is the bottom row.
	data := makeTGAHeader(TGATypeUncompressed, 2, 2, 24, 0)
	data = append(data,
		0, 0, 255, 0, 255, 0, // bottom: red, green
		255, 0, 0, 255, 255, 255, // top: blue, white
	)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 1, color.RGBA{255, 0, 0, 255}},
		{1, 1, color.RGBA{0, 255, 0, 255}},
		{0, 0, color.RGBA{0, 0, 255, 255}},
		{1, 0, color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		if got := rgbaAt(t, img, tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDecodeTGA_RLE(t *testing.T) {
	// 3x1, 32 bpp, top-down: one run of two red pixels, one raw green pixel.
	data := makeTGAHeader(TGATypeRLE, 3, 1, 32, 0x20)
	data = append(data,
		0x81, 0, 0, 255, 128,
		0x00, 0, 255, 0, 255,
	)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}

	for x := 0; x < 2; x++ {
		c := img.(*image.RGBA).RGBAAt(x, 0)
		if c.R != 255 || c.G != 0 || c.A != 128 {
			t.Errorf("pixel %d = %v, want red with alpha 128", x, c)
		}
	}
	if c := img.(*image.RGBA).RGBAAt(2, 0); c != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("pixel 2 = %v, want green", c)
	}
}

func TestDecodeTGA_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{0, 0, 2}},
		{"color mapped", func() []byte { h := makeTGAHeader(TGATypeUncompressed, 1, 1, 24, 0); h[1] = 1; return h }()},
		{"unsupported type", makeTGAHeader(3, 1, 1, 8, 0)},
		{"unsupported depth", makeTGAHeader(TGATypeUncompressed, 1, 1, 16, 0)},
		{"truncated pixels", makeTGAHeader(TGATypeUncompressed, 4, 4, 24, 0)},
		{"huge uncompressed", makeTGAHeader(TGATypeUncompressed, 65535, 65535, 32, 0)},
		{"huge RLE", append(makeTGAHeader(TGATypeRLE, 65535, 65535, 32, 0), 0xFF, 1, 2, 3, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTGA(tt.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestToNRGBA_MagentaKey(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{255, 0, 255, 255})
	src.SetRGBA(1, 0, color.RGBA{10, 20, 30, 255})

	out := toNRGBA(src, true)
	if c := out.NRGBAAt(0, 0); c != (color.NRGBA{}) {
		t.Errorf("magenta pixel = %v, want transparent", c)
	}
	if c := out.NRGBAAt(1, 0); c != (color.NRGBA{10, 20, 30, 255}) {
		t.Errorf("plain pixel = %v, want unchanged", c)
	}

	kept := toNRGBA(src, false)
	if c := kept.NRGBAAt(0, 0); c != (color.NRGBA{255, 0, 255, 255}) {
		t.Errorf("magenta pixel without keying = %v", c)
	}
}
