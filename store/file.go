// Package store saves engine snapshots: as zstd-compressed JSON files and in
// a SQLite index that keeps every save of every game.
package store

import (
	"os"
	"path/filepath"

	"railway/engine"

	"github.com/klauspost/compress/zstd"
)

// Encode compresses the JSON form of s.
func Encode(s engine.Snapshot) ([]byte, error) {
	raw, err := s.Marshal()
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

func Decode(b []byte) (engine.Snapshot, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return engine.Snapshot{}, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(b, nil)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return engine.UnmarshalSnapshot(raw)
}

// WriteFile writes s to path through a temporary file so a crash never
// leaves half a save behind.
func WriteFile(path string, s engine.Snapshot) error {
	b, err := Encode(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ReadFile(path string) (engine.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return Decode(b)
}
