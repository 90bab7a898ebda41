package passport

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/fonts"
	"github.com/matzehuels/idplease/pkg/passport"
)

// Input is everything painted on one passport.
type Input struct {
	Record passport.Record

	// Avatar is drawn in the avatar slot when non-nil. When nil, the slot
	// shows an empty bordered box, or a "NO IMAGE" box if AvatarFailed.
	Avatar       image.Image
	AvatarFailed bool
}

// Renderer paints passports onto a fixed-size canvas.
type Renderer struct {
	text       *fonts.Set
	title      *fonts.Set
	background image.Image
	logger     *log.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFont sets the face used for all labels, values and the MRZ.
func WithFont(s *fonts.Set) Option { return func(r *Renderer) { r.text = s } }

// WithTitleFont sets the face of the "6529 NATION" title.
func WithTitleFont(s *fonts.Set) Option { return func(r *Renderer) { r.title = s } }

// WithBackground sets the watermark image. It is stretched to the canvas
// and drawn at 25% opacity. Without one a guilloche pattern is used.
func WithBackground(img image.Image) Option { return func(r *Renderer) { r.background = img } }

func WithLogger(l *log.Logger) Option { return func(r *Renderer) { r.logger = l } }

// New creates a Renderer. Fonts default to the embedded Go Mono faces.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	if r.text == nil {
		s, err := fonts.Default()
		if err != nil {
			return nil, err
		}
		r.text = s
	}
	if r.title == nil {
		s, err := fonts.DefaultBold()
		if err != nil {
			r.title = r.text
		} else {
			r.title = s
		}
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r, nil
}

// LoadBackground opens an image file for use with WithBackground.
func LoadBackground(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeImageLoad, err, "background %s", path)
	}
	return img, nil
}

// MaxMRZChars is the MRZ line length for this renderer's font.
func (r *Renderer) MaxMRZChars() int {
	return passport.MaxMRZChars(Width, measure(r.text.Face(mrzSize), "<"))
}

// Render paints in onto a new canvas.
func (r *Renderer) Render(ctx context.Context, in Input) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	dc := gg.NewContextForRGBA(canvas)

	dc.SetColor(color.White)
	dc.Clear()
	r.drawWatermark(canvas)

	dc.SetColor(color.Black)
	r.drawHeader(dc, in.Record)
	r.drawAvatar(dc, in)
	r.drawFields(dc, in.Record)
	r.drawMRZ(dc, in.Record)
	return canvas, nil
}

// RenderPNG renders in and encodes it as PNG.
func (r *Renderer) RenderPNG(ctx context.Context, in Input) ([]byte, error) {
	img, err := r.Render(ctx, in)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gg.NewContextForRGBA(img).EncodePNG(&buf); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// =============================================================================
// Background
// =============================================================================

func (r *Renderer) drawWatermark(dst *image.RGBA) {
	var mark image.Image
	if r.background != nil {
		mark = imaging.Resize(r.background, Width, Height, imaging.Lanczos)
	} else {
		mark = guilloche()
	}
	mask := image.NewUniform(color.Alpha{A: watermarkAlpha})
	draw.DrawMask(dst, dst.Bounds(), mark, image.Point{}, mask, image.Point{}, draw.Over)
}

// guilloche draws interlaced rosettes in the style of security printing.
func guilloche() image.Image {
	dc := gg.NewContext(Width, Height)
	dc.SetLineWidth(1.2)
	cx, cy := float64(Width)/2, float64(Height)/2

	for ring := 0; ring < 6; ring++ {
		outer := 140 + float64(ring)*40
		inner := outer * 0.62
		d := outer * 0.35
		dc.SetRGB(0.15, 0.25+0.08*float64(ring), 0.55)
		k := (outer - inner) / inner
		for t := 0.0; t <= 2*math.Pi*13; t += 0.01 {
			x := cx + (outer-inner)*math.Cos(t) + d*math.Cos(k*t)
			y := cy + ((outer-inner)*math.Sin(t)-d*math.Sin(k*t))*0.7
			if t == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}

	dc.SetRGB(0.2, 0.35, 0.6)
	for i := 0; i < 24; i++ {
		phase := float64(i) * math.Pi / 12
		for x := 0.0; x <= Width; x += 4 {
			y := 40 + float64(i)*30 + 12*math.Sin(x/55+phase)
			if x == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}
	return dc.Image()
}

// =============================================================================
// Header
// =============================================================================

func (r *Renderer) drawHeader(dc *gg.Context, rec passport.Record) {
	dc.SetFontFace(r.title.Face(titleSize))
	dc.DrawStringAnchored(titleText, titleX, titleY, 0.5, 0)

	dc.SetFontFace(r.text.Face(headerLabelSize))
	dc.DrawString("Type", col1X, headerLabelY)
	dc.DrawString("Country", col2X, headerLabelY)
	dc.DrawString("Passport Numba", col3X, headerLabelY)

	dc.SetFontFace(r.text.Face(headerValueSize))
	dc.DrawString(passport.DocumentType, col1X, headerValueY)
	dc.DrawString(passport.Nationality, col2X, headerValueY)
	dc.DrawString(upper(rec.PassportNumber), col3X, headerValueY)

	drawChipSymbol(dc, logoX, logoY, logoW, logoH)
}

// drawChipSymbol draws the ePassport mark: a framed circle crossed by a bar.
func drawChipSymbol(dc *gg.Context, x, y, w, h float64) {
	dc.Push()
	defer dc.Pop()
	dc.SetLineWidth(3)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	cx, cy := x+w/2, y+h/2
	dc.DrawCircle(cx, cy, h/2-7)
	dc.Stroke()
	dc.DrawLine(x+6, cy, x+w-6, cy)
	dc.Stroke()
}

// =============================================================================
// Avatar
// =============================================================================

func (r *Renderer) drawAvatar(dc *gg.Context, in Input) {
	if in.Avatar != nil {
		square := imaging.Resize(in.Avatar, avatarSize, avatarSize, imaging.Lanczos)
		dc.DrawImage(square, avatarX, avatarY)
		return
	}

	dc.Push()
	defer dc.Pop()
	dc.SetColor(color.White)
	dc.DrawRectangle(avatarX, avatarY, avatarSize, avatarSize)
	dc.Fill()

	dc.SetColor(color.Black)
	dc.SetLineWidth(borderWidth)
	dc.DrawRectangle(avatarX, avatarY, avatarSize, avatarSize)
	dc.Stroke()

	if !in.AvatarFailed {
		return
	}
	dc.SetLineWidth(2)
	dc.DrawLine(avatarX, avatarY, avatarX+avatarSize, avatarY+avatarSize)
	dc.DrawLine(avatarX+avatarSize, avatarY, avatarX, avatarY+avatarSize)
	dc.Stroke()

	dc.SetColor(color.White)
	dc.DrawRectangle(avatarX+48, avatarY+avatarSize/2-20, avatarSize-96, 40)
	dc.Fill()
	dc.SetColor(color.Black)
	dc.SetFontFace(r.text.Face(fieldLabel))
	dc.DrawStringAnchored("NO IMAGE", avatarX+avatarSize/2, avatarY+avatarSize/2, 0.5, 0.35)
}

// =============================================================================
// Fields and MRZ
// =============================================================================

type field struct {
	label, value string
}

func (r *Renderer) drawFields(dc *gg.Context, rec passport.Record) {
	stack := []field{
		{"Ser-name", upper(rec.Surname)},
		{"First Name", upper(rec.FirstName)},
		{"Line Numba", upper(rec.LineNumber)},
		{"Token Identification", upper(rec.TokenID)},
		{"Reputation", upper(rec.Reputation)},
		{"Mint Date", passport.FormatDate(rec.MintDate)},
		{"Authority", upper(rec.Authority)},
	}

	labelFace := r.text.Face(fieldLabel)
	valueFace := r.text.Face(fieldValue)
	x := float64(col1X)
	for i, f := range stack {
		y := float64(fieldStartY + i*fieldStep)
		dc.SetFontFace(labelFace)
		dc.DrawString(f.label, x, y)
		dc.SetFontFace(valueFace)
		dc.DrawString(f.value, x, y+valueOffset)
	}

	// Authority shares its row with the ENS expiry.
	y := float64(fieldStartY + (len(stack)-1)*fieldStep)
	dc.SetFontFace(labelFace)
	dc.DrawString("ENS Expiry Date", x+expiryColumnX, y)
	dc.SetFontFace(valueFace)
	dc.DrawString(passport.FormatDate(rec.ExpiryDate), x+expiryColumnX, y+valueOffset)
}

func (r *Renderer) drawMRZ(dc *gg.Context, rec passport.Record) {
	face := r.text.Face(mrzSize)
	maxChars := passport.MaxMRZChars(Width, measure(face, "<"))
	line1 := passport.MRZLine1(rec, maxChars)
	line2 := passport.MRZLine2(rec, maxChars)
	if n := len(line1); n > maxChars {
		r.logger.Debug("mrz line exceeds canvas", "line", 1, "chars", n, "max", maxChars)
	}

	dc.SetFontFace(face)
	dc.DrawString(line1, mrzX, mrzY)
	dc.DrawString(line2, mrzX, mrzY+mrzLineDY)
}

func measure(face font.Face, s string) float64 {
	adv := font.MeasureString(face, s)
	return float64(adv) / 64
}

func upper(s string) string { return strings.ToUpper(s) }
