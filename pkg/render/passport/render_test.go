package passport

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/idplease/pkg/fonts"
	"github.com/matzehuels/idplease/pkg/passport"
)

func testRecord() passport.Record {
	return passport.Build(passport.Resolved{
		Handle:     "alice",
		Wallet:     "0x1234567890abcdef1234567890abcdef12345678",
		Reputation: "Line 3 Artist",
	}, passport.Overrides{FirstName: "Alice"})
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func newRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return r
}

func TestRenderCanvas(t *testing.T) {
	img, err := newRenderer(t).Render(context.Background(), Input{Record: testRecord()})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Errorf("bounds = %v, want %dx%d", b, Width, Height)
	}

	// Left edge of the empty avatar box is part of its border.
	if got := img.RGBAAt(avatarX, avatarY+avatarSize/2); got.R > 32 || got.G > 32 || got.B > 32 {
		t.Errorf("avatar border pixel = %v, want black", got)
	}
}

func TestRenderAvatar(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	img, err := newRenderer(t).Render(context.Background(), Input{
		Record: testRecord(),
		Avatar: solid(80, 80, red),
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	got := img.RGBAAt(avatarX+avatarSize/2, avatarY+avatarSize/3)
	if got.R < 240 || got.G > 16 || got.B > 16 {
		t.Errorf("avatar pixel = %v, want red", got)
	}
}

func TestRenderAvatarFailedPlaceholder(t *testing.T) {
	r := newRenderer(t)
	blank, _ := r.Render(context.Background(), Input{Record: testRecord()})
	failed, _ := r.Render(context.Background(), Input{Record: testRecord(), AvatarFailed: true})

	// The failure marker crosses the box diagonally.
	p := image.Pt(avatarX+avatarSize/4, avatarY+avatarSize/4)
	if blank.RGBAAt(p.X, p.Y) == failed.RGBAAt(p.X, p.Y) {
		t.Error("failed-avatar placeholder should differ from the empty box")
	}
}

func TestRenderBackgroundOpacity(t *testing.T) {
	bg := solid(10, 10, color.RGBA{B: 255, A: 255})
	img, err := newRenderer(t, WithBackground(bg)).Render(context.Background(), Input{Record: testRecord()})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	got := img.RGBAAt(5, 5)
	// White blended with blue at 25%.
	if got.B != 255 || got.R < 185 || got.R > 197 {
		t.Errorf("watermark pixel = %v, want ~(191,191,255)", got)
	}
}

func TestRenderPNG(t *testing.T) {
	data, err := newRenderer(t).RenderPNG(context.Background(), Input{Record: testRecord()})
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Errorf("decoded bounds = %v", b)
	}
}

func TestRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newRenderer(t).Render(ctx, Input{}); err == nil {
		t.Error("Render() on canceled context should fail")
	}
}

func TestMaxMRZCharsFitsCanvas(t *testing.T) {
	set, err := fonts.Default()
	if err != nil {
		t.Fatal(err)
	}
	r := newRenderer(t, WithFont(set))
	n := r.MaxMRZChars()
	if n <= 0 {
		t.Fatalf("MaxMRZChars() = %d", n)
	}
	line := passport.MRZLine2(testRecord(), n)
	if w := measure(set.Face(mrzSize), line); w > Width-passport.MRZMargin {
		t.Errorf("MRZ line width %.1f exceeds %d", w, Width-passport.MRZMargin)
	}
	if !strings.HasPrefix(line, "<0X1234") {
		t.Errorf("MRZLine2() = %q", line)
	}
}
