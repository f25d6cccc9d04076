package treeviz

import (
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PNGOptions controls the legend overlay PNG renders on top of a blank
// canvas; it never rasterizes the DOT graph itself, only a title/legend
// strip meant to sit alongside a `dot`-rendered image in a report.
type PNGOptions struct {
	Title string
	// FontPath, if set, names a TrueType font file loaded through
	// golang/freetype; an empty FontPath falls back to
	// golang.org/x/image/font/basicfont, which needs no asset on disk.
	FontPath string
	FontSize float64
}

// PNG rasterizes a title/legend overlay of width w and height h using
// golang.org/x/image/font/basicfont, the zero-asset default. dot is accepted
// for symmetry with DOT's output (a future revision may embed a thumbnail of
// the rendered graph) but is not otherwise inspected.
func PNG(dot string, w, h int) (image.Image, error) {
	return PNGWithOptions(dot, w, h, PNGOptions{})
}

// PNGWithOptions is PNG with control over the title text and, via FontPath,
// golang/freetype-based rendering from a real TrueType asset instead of the
// basicfont fallback.
func PNGWithOptions(dot string, w, h int, opts PNGOptions) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	title := opts.Title
	if title == "" {
		title = "search tree"
	}

	if opts.FontPath != "" {
		if err := drawWithFreetype(img, title, opts); err != nil {
			return nil, err
		}
		return img, nil
	}

	drawWithBasicFont(img, title)
	return img, nil
}

func drawWithBasicFont(img *image.RGBA, title string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, 16),
	}
	d.DrawString(title)
}

func drawWithFreetype(img *image.RGBA, title string, opts PNGOptions) error {
	fontBytes, err := os.ReadFile(opts.FontPath)
	if err != nil {
		return errors.Wrap(err, "treeviz: reading font file")
	}
	f, err := truetype.Parse(fontBytes)
	if err != nil {
		return errors.Wrap(err, "treeviz: parsing TrueType font")
	}

	size := opts.FontSize
	if size == 0 {
		size = 14
	}

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(size)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(color.Black))

	pt := freetype.Pt(8, 16)
	if _, err := c.DrawString(title, pt); err != nil {
		return errors.Wrap(err, "treeviz: drawing title")
	}
	return nil
}
