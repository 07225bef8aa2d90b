package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Suffix is appended to a file's path to name its backup.
const Suffix = ".bak.zst"

// PathFor returns the backup path for path.
func PathFor(path string) string {
	return path + Suffix
}

// OriginalPath returns the path a backup restores to by default.
func OriginalPath(backupPath string) string {
	return strings.TrimSuffix(backupPath, Suffix)
}

type options struct {
	level int
}

// Option configures Backup.
type Option func(*options)

// WithCompressionLevel sets the zstd level used for the backup.
func WithCompressionLevel(level int) Option {
	return func(o *options) {
		o.level = level
	}
}

// Backup stores the file at path in PathFor(path), replacing any earlier
// backup. It returns the backup path, or "" without error when path does
// not exist.
func Backup(path string, opts ...Option) (string, error) {
	o := options{level: DefaultCompressionLevel}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	out, err := Encode(data, Header{Mode: st.Mode().Perm(), ModTime: st.ModTime()}, o.level)
	if err != nil {
		return "", err
	}

	dst := PathFor(path)
	if err := writeAtomic(dst, out, 0644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}

// Restore decompresses backupPath into dst with the original permissions
// and modification time. An empty dst restores to OriginalPath(backupPath).
func Restore(backupPath, dst string) (string, error) {
	if dst == "" {
		dst = OriginalPath(backupPath)
	}
	if dst == backupPath {
		return "", fmt.Errorf("restore target equals backup path %s", backupPath)
	}

	f, err := os.Open(backupPath)
	if err != nil {
		return "", fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	data, h, err := ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read backup %s: %w", backupPath, err)
	}

	mode := h.Mode.Perm()
	if mode == 0 {
		mode = 0644
	}
	if err := writeAtomic(dst, data, mode); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if !h.ModTime.IsZero() {
		if err := os.Chtimes(dst, h.ModTime, h.ModTime); err != nil {
			return "", fmt.Errorf("set times on %s: %w", dst, err)
		}
	}
	return dst, nil
}

// Inspect reads only the header of the backup at path.
func Inspect(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Header(), nil
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
