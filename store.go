package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/maptile"
)

// TileStore 渲染器瓦片缓存
type TileStore interface {
	Has(t maptile.Tile) (bool, error)
	Put(tile Tile) error
	Close() error
}

// FileStore 目录缓存 <dir>/<z>/<x>/<y>.<format>
type FileStore struct {
	dir    string
	format string
}

var _ TileStore = (*FileStore)(nil)

func NewFileStore(dir, format string) (*FileStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, format: format}, nil
}

func (s *FileStore) path(t maptile.Tile) string {
	return filepath.Join(s.dir, fmt.Sprintf(`%d`, t.Z), fmt.Sprintf(`%d`, t.X), fmt.Sprintf(`%d.%s`, t.Y, s.format))
}

func (s *FileStore) Has(t maptile.Tile) (bool, error) {
	_, err := os.Stat(s.path(t))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *FileStore) Put(tile Tile) error {
	name := s.path(tile.T)
	if err := os.MkdirAll(filepath.Dir(name), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(name, tile.C, 0644)
}

func (s *FileStore) Close() error {
	return nil
}
