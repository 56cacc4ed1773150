package wizard

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// FileHandle is a file chosen for upload.
type FileHandle interface {
	Name() string
	Size() int64
	Type() string
	Open() (io.ReadCloser, error)
}

// audioTypes covers containers the mime package does not always know.
var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".m4b":  "audio/mp4",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".pdf":  "application/pdf",
}

// LocalFile is a FileHandle backed by a path on disk.
type LocalFile struct {
	path     string
	name     string
	size     int64
	fileType string
}

// OpenLocalFile inspects path and detects its media type.
func OpenLocalFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	fileType, err := detectType(path)
	if err != nil {
		return nil, err
	}
	return &LocalFile{
		path:     path,
		name:     filepath.Base(path),
		size:     info.Size(),
		fileType: fileType,
	}, nil
}

func detectType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if known, ok := audioTypes[ext]; ok {
		return known, nil
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return byExt, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return http.DetectContentType(head[:n]), nil
}

func (f *LocalFile) Name() string { return f.name }

func (f *LocalFile) Size() int64 { return f.size }

func (f *LocalFile) Type() string { return f.fileType }

func (f *LocalFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

// Path returns the file location.
func (f *LocalFile) Path() string { return f.path }
