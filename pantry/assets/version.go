package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
)

// ContentHash computes a 10-character hex SHA-256 fingerprint of the
// concatenated content of the named files inside fsys, for ?v= cache
// busting. Files that cannot be read are skipped.
func ContentHash(fsys fs.FS, paths ...string) string {
	h := sha256.New()
	for _, name := range paths {
		if data, err := fs.ReadFile(fsys, name); err == nil {
			h.Write(data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:10]
}

// Versions returns name → ContentHash(name) for each file, so templates can
// append a per-file version.
func Versions(fsys fs.FS, paths ...string) map[string]string {
	out := make(map[string]string, len(paths))
	for _, name := range paths {
		out[name] = ContentHash(fsys, name)
	}
	return out
}
