package artifact

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
)

// SourceDigest computes a content digest over the source tree and build
// descriptor. The walk order is fixed (sorted relative paths) and each entry
// hashes its path and contents, so the digest is stable for identical trees
// and changes when any file changes.
func SourceDigest(src Source) (digest.Digest, error) {
	var files []string
	err := filepath.WalkDir(src.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != src.Root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(src.Root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", src.Root, err)
	}
	sort.Strings(files)

	digester := digest.Canonical.Digester()
	h := digester.Hash()
	for _, rel := range files {
		fmt.Fprintf(h, "%s\x00", rel)
		f, err := os.Open(filepath.Join(src.Root, rel))
		if err != nil {
			return "", fmt.Errorf("open %s: %w", rel, err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("hash %s: %w", rel, err)
		}
		fmt.Fprint(h, "\x00")
	}
	fmt.Fprintf(h, "descriptor:%s\x00", src.Descriptor)

	return digester.Digest(), nil
}
