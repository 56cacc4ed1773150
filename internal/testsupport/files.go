package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// mp3FrameHeader is an MPEG-1 Layer III sync header, enough for content
// sniffing to see audio.
var mp3FrameHeader = []byte{0xff, 0xfb, 0x90, 0x64}

// WriteAudiobook creates dir/name holding size bytes of repeated MP3 frame
// headers and returns its path. A size <= 0 writes one header.
func WriteAudiobook(t testing.TB, dir, name string, size int64) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if size <= 0 {
		size = int64(len(mp3FrameHeader))
	}
	repeats := int(size)/len(mp3FrameHeader) + 1
	payload := bytes.Repeat(mp3FrameHeader, repeats)[:size]
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
