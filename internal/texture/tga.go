package texture

import (
	"fmt"
	"image"
	"image/color"
)

// TGA image types handled by DecodeTGA.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const (
	tgaHeaderSize = 18
	tgaMaxRun     = 128
)

// DecodeTGA decodes an uncompressed or RLE compressed true-color TGA image
// with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	pixels := data[offset:]
	stride := bpp / 8
	switch imageType {
	case TGATypeUncompressed:
		if len(pixels)/stride < width*height {
			return nil, fmt.Errorf("TGA pixel data truncated")
		}
	case TGATypeRLE:
		// One packet covers at most 128 pixels and takes at least 1+stride bytes.
		if width*height > tgaMaxRun*(len(pixels)/(1+stride)+1) {
			return nil, fmt.Errorf("TGA %dx%d too large for %d bytes of RLE data", width, height, len(pixels))
		}
	}

	p := &tgaPixels{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		data:        pixels,
		width:       width,
		height:      height,
		stride:      stride,
		topToBottom: topToBottom,
	}

	if imageType == TGATypeUncompressed {
		for p.pixel < width*height {
			p.put(p.next())
		}
	} else {
		p.decodeRLE()
	}

	return p.img, nil
}

// tgaPixels walks TGA pixel data in file order.
type tgaPixels struct {
	img         *image.RGBA
	data        []byte
	pos         int
	pixel       int
	width       int
	height      int
	stride      int
	topToBottom bool
}

// next reads one BGR(A) pixel.
func (p *tgaPixels) next() color.RGBA {
	d := p.data[p.pos : p.pos+p.stride]
	p.pos += p.stride
	c := color.RGBA{R: d[2], G: d[1], B: d[0], A: 255}
	if p.stride == 4 {
		c.A = d[3]
	}
	return c
}

// put stores c at the current pixel and advances. TGA rows are bottom-up
// unless the descriptor says otherwise.
func (p *tgaPixels) put(c color.RGBA) {
	x := p.pixel % p.width
	y := p.pixel / p.width
	if !p.topToBottom {
		y = p.height - 1 - y
	}
	p.img.SetRGBA(x, y, c)
	p.pixel++
}

func (p *tgaPixels) hasPixel() bool {
	return p.pos+p.stride <= len(p.data)
}

// decodeRLE expands run-length packets. Truncated data leaves the rest of
// the image transparent.
func (p *tgaPixels) decodeRLE() {
	total := p.width * p.height
	for p.pixel < total && p.pos < len(p.data) {
		header := p.data[p.pos]
		p.pos++
		n := int(header&0x7F) + 1

		if header&0x80 != 0 {
			if !p.hasPixel() {
				return
			}
			c := p.next()
			for i := 0; i < n && p.pixel < total; i++ {
				p.put(c)
			}
			continue
		}

		for i := 0; i < n && p.pixel < total; i++ {
			if !p.hasPixel() {
				return
			}
			p.put(p.next())
		}
	}
}

// isMagentaKey reports whether a color is the legacy magenta transparency key.
// The tolerance absorbs rounding in lossy source images.
func isMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// toNRGBA copies img into a non-premultiplied image, optionally turning
// magenta key pixels into transparent black.
func toNRGBA(img image.Image, magentaKey bool) *image.NRGBA {
	bounds := img.Bounds()
	out := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if magentaKey && isMagentaKey(c.R, c.G, c.B) {
				c = color.NRGBA{}
			}
			out.SetNRGBA(x, y, c)
		}
	}

	return out
}
