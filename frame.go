package avplayer

// PixelFormat identifies a decoded video frame's planar pixel layout.
// I420 (planar YUV 4:2:0) is the only format the Presenter's VideoSink
// path (internal/sdlsink, SDL_PIXELFORMAT_IYUV) is required to handle;
// others are carried through for decoders that produce them natively.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatI420                // planar YUV 4:2:0 (Y, U, V)
	PixelFormatNV12                 // semi-planar YUV 4:2:0 (Y, interleaved UV)
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatI420:
		return "I420"
	case PixelFormatNV12:
		return "NV12"
	default:
		return "unknown"
	}
}

// Rational is a numerator/denominator pair, used for sample aspect ratio
// and time bases, matching AVRational's role in the original codec layer.
type Rational struct {
	Num, Den int
}

// Valid reports whether r represents a usable ratio (positive on both sides).
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Float64 returns r as a float64, or 0 if r is not Valid.
func (r Rational) Float64() float64 {
	if !r.Valid() {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// RawFrame is a decoded video sample: planar data plus the metadata the
// VideoDecoder stage attaches (PTS, duration, repeat hint) before handing
// it to a FrameRing slot. Data/Stride describe up to 3 planes.
//
// RawFrame is reused in place by FrameRing: AdvanceRead calls reset on the
// consumed slot, and the VideoDecoder overwrites the slot's fields,
// including Data and Stride, with the next decoded frame's.
type RawFrame struct {
	Data   [][]byte // plane data, one slice per plane
	Stride []int    // bytes per row, one entry per plane

	Width  int
	Height int
	Format PixelFormat
	SAR    Rational // sample aspect ratio; invalid (<=0) means 1:1

	PTSSeconds      float64 // presentation timestamp, seconds
	DurationSeconds float64 // nominal display duration, seconds
	RepeatHint      int     // codec hint: hold for an extra half-interval (telecine/interlace)

	// Pos is a byte-position-in-stream placeholder for future seek support.
	// Seeking is out of scope for now; nothing reads this field today.
	Pos int64
}

// reset clears a RawFrame's metadata for reuse and sets Pos to -1. Data
// and Stride are left as they are; the next publish replaces them.
func (f *RawFrame) reset() {
	f.Width, f.Height = 0, 0
	f.Format = PixelFormatUnknown
	f.SAR = Rational{}
	f.PTSSeconds, f.DurationSeconds = 0, 0
	f.RepeatHint = 0
	f.Pos = -1
}

// PlaneCount returns the number of planes expected for f.Format.
func (f PixelFormat) PlaneCount() int {
	switch f {
	case PixelFormatI420:
		return 3
	case PixelFormatNV12:
		return 2
	default:
		return 0
	}
}
