package avplayer

// CalculateDisplayRect computes the letterbox/pillarbox display rectangle
// for a decoded picture inside a window.
//
// Display aspect ratio = SAR * (pictureWidth/pictureHeight); an invalid SAR
// (<=0 on either side) is treated as 1:1. The rectangle fills the window
// along the constraining axis, is centered, and both dimensions are forced
// even.
func CalculateDisplayRect(windowWidth, windowHeight, pictureWidth, pictureHeight int, sar Rational) Rect {
	if !sar.Valid() {
		sar = Rational{1, 1}
	}
	// display aspect ratio = sar * (pictureWidth / pictureHeight)
	darNum := sar.Num * pictureWidth
	darDen := sar.Den * pictureHeight

	height := windowHeight
	width := forceEven(rescale(height, darNum, darDen))
	if width > windowWidth {
		width = windowWidth
		height = forceEven(rescale(width, darDen, darNum))
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	x := (windowWidth - width) / 2
	y := (windowHeight - height) / 2

	return Rect{X: x, Y: y, W: width, H: height}
}

// rescale computes round(value * num / den) using integer arithmetic,
// mirroring av_rescale's rounding-to-nearest behavior.
func rescale(value, num, den int) int {
	if den == 0 {
		return 0
	}
	// round-to-nearest: (value*num*2 + den) / (den*2), careful with sign.
	n := value * num
	if (n < 0) != (den < 0) {
		return (n*2 - den) / (den * 2)
	}
	return (n*2 + den) / (den * 2)
}

// forceEven clears the low bit, matching the original's `& ~1`.
func forceEven(v int) int {
	return v &^ 1
}
