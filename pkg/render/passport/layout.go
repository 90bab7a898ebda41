package passport

// Canvas size in pixels.
const (
	Width  = 1200
	Height = 800
)

// Layout constants. All positions are in canvas pixels; text y values are
// baselines.
const (
	avatarX    = 40
	avatarY    = 160
	avatarSize = 256

	colGap = 210
	col1X  = avatarX + avatarSize + 32
	col2X  = col1X + colGap
	col3X  = col2X + colGap

	headerLabelY    = 85
	headerValueY    = 120
	headerLabelSize = 18
	headerValueSize = 32

	titleText = "6529 NATION"
	titleX    = Width/2 - 213
	titleY    = 50
	titleSize = 32

	logoX = Width - 110
	logoY = 88
	logoW = 56
	logoH = 36

	fieldStartY   = avatarY + 6
	fieldStep     = 70
	fieldLabel    = 20
	fieldValue    = 32
	valueOffset   = 30
	expiryColumnX = 420

	mrzSize   = 36
	mrzX      = 40
	mrzY      = Height - 90
	mrzLineDY = 35

	// watermarkAlpha is the 25% opacity of the background watermark.
	watermarkAlpha = 64

	borderWidth = 6
)
