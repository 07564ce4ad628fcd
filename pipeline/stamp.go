package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// fileStamp identifies one version of a file. The zero value stands for a
// missing file.
type fileStamp struct {
	Exists  bool   `json:"exists"`
	Size    int64  `json:"size,omitempty"`
	ModTime int64  `json:"mod_time,omitempty"`
	Sum     string `json:"sum,omitempty"`
}

func stampFile(path string) fileStamp {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fileStamp{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fileStamp{}
	}
	sum := sha256.Sum256(data)
	return fileStamp{
		Exists:  true,
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		Sum:     hex.EncodeToString(sum[:]),
	}
}

// writtenSince reports whether path exists and differs from the version s
// was taken of. A rewrite with the same bytes counts when the mtime moved.
func (s fileStamp) writtenSince(path string) bool {
	now := stampFile(path)
	return now.Exists && now != s
}
