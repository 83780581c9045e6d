package resolve

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PathPolicy implements spec.md §4.5: snapshot normalization of the file
// exposed to the caller, materialized atomically (write-to-temp then
// rename) the way bindings/go/blob/blob_io.go copies blob content.
type PathPolicy struct {
	snapshotNormalization bool
}

// NewPathPolicy builds a PathPolicy from the resolver Config.
func NewPathPolicy(cfg Config) *PathPolicy {
	return &PathPolicy{snapshotNormalization: cfg.SnapshotNormalization}
}

// Apply returns the file that should be exposed to the caller for an
// artifact whose content currently lives at sourceFile. Downstream
// tooling addresses snapshots by baseVersion, so a timestamped snapshot
// file is copied next to itself under its baseVersion name; the copy is
// skipped when destination size and mtime already match the source,
// making repeated calls idempotent and copy-free.
func (p *PathPolicy) Apply(a Artifact, sourceFile string) (string, error) {
	if !p.snapshotNormalization || !a.IsSnapshot() || a.Version == a.BaseVersion || a.BaseVersion == "" {
		return sourceFile, nil
	}

	dest := normalizedSnapshotPath(sourceFile, a.Version, a.BaseVersion)
	if dest == sourceFile {
		return sourceFile, nil
	}

	srcInfo, err := os.Stat(sourceFile)
	if err != nil {
		return "", &TransferError{Artifact: a, Cause: fmt.Errorf("stat snapshot source %s: %w", sourceFile, err)}
	}

	if destInfo, err := os.Stat(dest); err == nil {
		if destInfo.Size() == srcInfo.Size() && destInfo.ModTime().Equal(srcInfo.ModTime()) {
			return dest, nil
		}
	}

	if err := copyWithMTime(sourceFile, dest, srcInfo); err != nil {
		return "", &TransferError{Artifact: a, Cause: err}
	}
	return dest, nil
}

// normalizedSnapshotPath rewrites the timestamped version substring in
// sourceFile's base name to baseVersion, leaving the directory untouched.
func normalizedSnapshotPath(sourceFile, version, baseVersion string) string {
	dir := filepath.Dir(sourceFile)
	base := filepath.Base(sourceFile)
	return filepath.Join(dir, strings.Replace(base, version, baseVersion, 1))
}

// copyWithMTime copies src to dst via a same-directory temp file and
// atomic rename, then stamps dst's mtime to match src's so a subsequent
// Apply call sees size-and-mtime equality and skips the copy.
func copyWithMTime(src, dst string, srcInfo os.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open snapshot source %s: %w", src, err)
	}
	defer func() { err = errors.Join(err, in.Close()) }()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create normalized snapshot file %s: %w", tmp, err)
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close normalized snapshot file %s: %w", tmp, err)
	}
	if err = os.Chtimes(tmp, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("set mtime on %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s -> %s: %w", tmp, dst, err)
	}
	return nil
}
