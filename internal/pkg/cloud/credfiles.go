package cloud

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"kolaboree-backend/pkg/utils"
)

// credFiles owns the temporary files holding inline credential material for
// one connection attempt. Until keep is called, release deletes every file it
// created; after keep, the files belong to the session and are removed by
// remove on disconnect.
type credFiles struct {
	dir   string
	paths []string
	kept  bool
}

func newCredFiles(dir string) *credFiles {
	return &credFiles{dir: dir}
}

// materialize returns value unchanged when it names a file, or writes inline
// PEM content to a fresh temp file and returns that file's path.
func (c *credFiles) materialize(value, suffix string) (string, error) {
	if !utils.IsPEM(value) {
		return value, nil
	}
	return c.write([]byte(value), suffix)
}

func (c *credFiles) write(data []byte, suffix string) (string, error) {
	f, err := os.CreateTemp(c.dir, "lxd-client-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create credential file: %w", err)
	}
	c.paths = append(c.paths, f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write credential file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close credential file: %w", err)
	}
	return f.Name(), nil
}

func (c *credFiles) keep() {
	c.kept = true
}

// release is deferred by the connect path.
func (c *credFiles) release() {
	if !c.kept {
		_ = c.remove()
	}
}

// remove deletes every tracked file. Files that are already gone are ignored.
func (c *credFiles) remove() error {
	var errs []error
	for _, path := range c.paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	c.paths = nil
	return errors.Join(errs...)
}
