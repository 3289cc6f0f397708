package tactile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"beeno/internal/types"
)

var moduleSeq atomic.Uint64

// TempModulePath returns a fresh .ts path under dir (os.TempDir() when empty),
// named from the prefix, the current time and the process id.
func TempModulePath(dir, prefix string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	name := fmt.Sprintf("%s-%d-%d-%d.ts", prefix, time.Now().UnixMilli(), os.Getpid(), moduleSeq.Add(1))
	return filepath.Join(dir, name)
}

// WriteModule writes source to a new temp module and returns its path.
func WriteModule(dir, prefix, source string) (string, error) {
	path := TempModulePath(dir, prefix)
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		return "", types.NewIOError("write temp module "+path, err)
	}
	return path, nil
}

// RemoveModule deletes a temp module, ignoring errors.
func RemoveModule(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
