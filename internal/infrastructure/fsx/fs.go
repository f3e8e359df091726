package fsx

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"billing-service/internal/application"

	cp "github.com/otiai10/copy"
)

// OS is the real filesystem.
type OS struct{}

var _ application.FileSystem = OS{}

func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OS) MkdirAll(path string) error { return os.MkdirAll(path, 0o755) }

func (OS) Create(path string) (io.WriteCloser, error) { return os.Create(path) }

func (OS) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (OS) RemoveAll(path string) error { return os.RemoveAll(path) }

// CopyDir overlays src onto dst: existing files are overwritten, files only
// present in dst are kept.
func (OS) CopyDir(src, dst string) error {
	return cp.Copy(src, dst, cp.Options{
		OnSymlink:     func(string) cp.SymlinkAction { return cp.Shallow },
		PreserveTimes: true,
		Sync:          true,
	})
}
