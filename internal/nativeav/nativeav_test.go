//go:build darwin || linux

package nativeav

import "testing"

// libavshim is an external shared library this module doesn't vendor or
// build. None of these tests needs it: the open test asserts failure when
// it is absent and skips itself where it is installed.

func TestLoadAvshimLibPathsIncludesEnvOverride(t *testing.T) {
	t.Setenv("AVSHIM_LIB_PATH", "/opt/custom/libavshim.so")
	paths := avshimLibPaths()
	if len(paths) == 0 || paths[0] != "/opt/custom/libavshim.so" {
		t.Fatalf("AVSHIM_LIB_PATH override was not checked first, got %v", paths)
	}
}

func TestOpenFileDemuxerFailsWithoutLibrary(t *testing.T) {
	if err := loadAvshim(); err == nil {
		t.Skip("libavshim is installed in this environment; nothing to assert here")
	}
	if _, err := OpenFileDemuxer("testdata/sample.mp4"); err == nil {
		t.Fatal("OpenFileDemuxer should fail when libavshim cannot be loaded")
	}
}

func TestNativePixelFormatRoundTrip(t *testing.T) {
	for code := 0; code <= 2; code++ {
		got := nativePixelFormatCode(nativePixelFormat(int32(code)))
		if got != code {
			t.Fatalf("pixel format code %d did not round-trip, got %d", code, got)
		}
	}
}

func TestNativeSampleFormatRoundTrip(t *testing.T) {
	for code := 0; code <= 2; code++ {
		got := nativeSampleFormatCode(nativeSampleFormat(int32(code)))
		if got != code {
			t.Fatalf("sample format code %d did not round-trip, got %d", code, got)
		}
	}
}
