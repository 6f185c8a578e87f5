package export

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/framecut/framecut/internal/interp"
	"github.com/framecut/framecut/internal/timeline"
)

// textPadding is the fixed padding, in pixels, around text when a
// background rectangle is drawn.
const textPadding = 12

// shadowOffset is the drop-shadow displacement used when a text clip has no
// explicit background.
const shadowOffset = 2

// textRenderer rasterizes text clips with the embedded Go fonts. Faces are
// cached per (weight, size).
type textRenderer struct {
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size float64
}

func newTextRenderer() (*textRenderer, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	b, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return &textRenderer{regular: reg, bold: b, faces: make(map[faceKey]font.Face)}, nil
}

func (r *textRenderer) face(weight string, size float64) (font.Face, error) {
	key := faceKey{bold: strings.EqualFold(weight, "bold"), size: size}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	src := r.regular
	if key.bold {
		src = r.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	r.faces[key] = f
	return f, nil
}

// draw renders the text clip into the layer, anchored at the animated
// position. With a background set, a rectangle sized to the measured text
// plus fixed padding is drawn behind it and no shadow is applied; without
// one, a drop shadow keeps the text legible. Alignment shifts the block's
// origin relative to the anchor.
func (r *textRenderer) draw(layer *image.RGBA, tc timeline.TextClip, props interp.Properties, _ transitionFX) {
	if tc.Text == "" {
		return
	}
	size := props.FontSize
	if size <= 0 {
		size = 48
	}
	face, err := r.face(tc.FontWeight, size)
	if err != nil {
		return
	}

	lines := strings.Split(tc.Text, "\n")
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	var maxWidth int
	widths := make([]int, len(lines))
	for i, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		widths[i] = w
		if w > maxWidth {
			maxWidth = w
		}
	}
	blockHeight := lineHeight * len(lines)

	bounds := layer.Bounds()
	anchorX := float64(bounds.Dx()) * props.Position.X / 100
	anchorY := float64(bounds.Dy()) * props.Position.Y / 100

	// The anchor is the block's center vertically; horizontally it depends
	// on alignment.
	var originX int
	switch strings.ToLower(tc.Align) {
	case "left":
		originX = int(math.Round(anchorX))
	case "right":
		originX = int(math.Round(anchorX)) - maxWidth
	default:
		originX = int(math.Round(anchorX)) - maxWidth/2
	}
	originY := int(math.Round(anchorY)) - blockHeight/2

	textColor := parseColorOr(props.Color, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	if tc.Background != "" {
		bg := parseColorOr(tc.Background, color.RGBA{A: 255})
		rect := image.Rect(
			originX-textPadding,
			originY-textPadding,
			originX+maxWidth+textPadding,
			originY+blockHeight+textPadding,
		)
		draw.Draw(layer, rect.Intersect(bounds), image.NewUniform(bg), image.Point{}, draw.Over)
	}

	for i, line := range lines {
		lineX := originX
		switch strings.ToLower(tc.Align) {
		case "left":
		case "right":
			lineX = originX + maxWidth - widths[i]
		default:
			lineX = originX + (maxWidth-widths[i])/2
		}
		baseline := originY + i*lineHeight + ascent

		if tc.Background == "" {
			shadow := &font.Drawer{
				Dst:  layer,
				Src:  image.NewUniform(color.RGBA{A: 160}),
				Face: face,
				Dot:  fixed.P(lineX+shadowOffset, baseline+shadowOffset),
			}
			shadow.DrawString(line)
		}

		d := &font.Drawer{
			Dst:  layer,
			Src:  image.NewUniform(textColor),
			Face: face,
			Dot:  fixed.P(lineX, baseline),
		}
		d.DrawString(line)
	}
}

func parseColorOr(hex string, fallback color.RGBA) color.RGBA {
	r, g, b, err := interp.ParseHexColor(hex)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}
