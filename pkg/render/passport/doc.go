// Package passport paints passport records onto a 1200×800 raster canvas.
//
// The layout is fixed: a translucent watermark, a header band with the
// title and three label/value columns, the avatar slot with a seven-row
// field stack beside it, and a two-line machine-readable zone at the
// bottom. Positions and font sizes are constants in layout.go.
//
// Drawing uses fogleman/gg on an *image.RGBA; image scaling and cropping use
// disintegration/imaging.
//
//	r, err := passport.New(passport.WithBackground(bg))
//	png, err := r.RenderPNG(ctx, passport.Input{Record: rec, Avatar: img})
package passport
