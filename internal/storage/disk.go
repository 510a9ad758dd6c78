package storage

import (
	"errors"
	"io/fs"
	"os"
)

// DatabaseSize returns the combined size in bytes of the SQLite database at dbPath and its
// -wal and -shm side files. Side files that do not exist count as zero.
func DatabaseSize(dbPath string) (int64, error) {
	if dbPath == "" {
		return 0, nil
	}
	var total int64
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
