package avplayer

import "testing"

func TestCalculateDisplayRect(t *testing.T) {
	tests := []struct {
		name                      string
		winW, winH, picW, picH    int
		sar                       Rational
		wantW, wantH, wantX, wantY int
	}{
		{
			name: "16:9 picture in 16:9 window fills exactly",
			winW: 1920, winH: 1080, picW: 1280, picH: 720,
			sar:   Rational{1, 1},
			wantW: 1920, wantH: 1080, wantX: 0, wantY: 0,
		},
		{
			name: "4:3 picture pillarboxed in 16:9 window",
			winW: 1920, winH: 1080, picW: 640, picH: 480,
			sar:   Rational{1, 1},
			wantW: 1440, wantH: 1080, wantX: 240, wantY: 0,
		},
		{
			name: "invalid SAR treated as 1:1",
			winW: 1920, winH: 1080, picW: 1280, picH: 720,
			sar:   Rational{0, 1},
			wantW: 1920, wantH: 1080, wantX: 0, wantY: 0,
		},
		{
			name: "anamorphic SAR overflows width, re-solves height",
			winW: 1920, winH: 1080, picW: 720, picH: 576,
			sar:   Rational{16, 11},
			wantW: 1920, wantH: 1056, wantX: 0, wantY: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDisplayRect(tt.winW, tt.winH, tt.picW, tt.picH, tt.sar)
			if got.W != tt.wantW || got.H != tt.wantH {
				t.Fatalf("rect size = %dx%d, want %dx%d", got.W, got.H, tt.wantW, tt.wantH)
			}
			if got.X != tt.wantX || got.Y != tt.wantY {
				t.Fatalf("rect origin = (%d,%d), want (%d,%d)", got.X, got.Y, tt.wantX, tt.wantY)
			}
			if got.W%2 != 0 || got.H%2 != 0 {
				t.Fatalf("rect dimensions must be forced even, got %dx%d", got.W, got.H)
			}
		})
	}
}
