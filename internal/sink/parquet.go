package sink

import (
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"salesmart/pkg/etlerr"
)

// WriteParquet serializes rows to a Parquet artifact at path, replacing
// any existing artifact. The file is written to a temporary name in the
// same directory and atomically renamed on success, so a failed run
// never leaves a truncated artifact behind.
func WriteParquet(path string, rows []FactRow) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".salesmart-*.parquet")
	if err != nil {
		return etlerr.NewWriteFailed(path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := parquet.NewGenericWriter[FactRow](tmp, parquet.Compression(&parquet.Snappy))
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			cleanup()
			return etlerr.NewWriteFailed(path, err)
		}
	}
	if err := w.Close(); err != nil {
		cleanup()
		return etlerr.NewWriteFailed(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return etlerr.NewWriteFailed(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return etlerr.NewWriteFailed(path, err)
	}
	return nil
}

// ReadParquet loads an artifact back into memory. Used by tests and by
// downstream consumers that want the typed rows.
func ReadParquet(path string) ([]FactRow, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, etlerr.NewSourceNotFound(path, "artifact does not exist")
	}
	return parquet.ReadFile[FactRow](path)
}
