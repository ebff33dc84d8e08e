//go:build darwin || linux

package sdlsink

import "testing"

// libSDL2 isn't vendored by this module. None of these tests needs it: the
// sink test asserts failure when it is absent and skips itself where it is
// installed.

func TestNewSinkFailsWithoutLibrary(t *testing.T) {
	if err := loadSDL(); err == nil {
		t.Skip("libSDL2 is installed in this environment; nothing to assert here")
	}
	if _, err := NewSink("avplayer"); err == nil {
		t.Fatal("NewSink should fail when libSDL2 cannot be loaded")
	}
}

func TestSDLLibPathsIncludesEnvOverride(t *testing.T) {
	t.Setenv("SDL2_LIB_PATH", "/opt/custom/libSDL2.so")
	paths := sdlLibPaths()
	if len(paths) == 0 || paths[0] != "/opt/custom/libSDL2.so" {
		t.Fatalf("SDL2_LIB_PATH override was not checked first, got %v", paths)
	}
}
