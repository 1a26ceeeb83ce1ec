package main

import (
	"database/sql"
	"embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb/maptile"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore MBTiles 风格的 sqlite 缓存, 行号为 TMS
type SQLiteStore struct {
	db *sql.DB
}

var _ TileStore = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	log.Infof("sqlite cache %s ready", path)
	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(log)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(s.db, "migrations")
}

func (s *SQLiteStore) Has(t maptile.Tile) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM tiles
	WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`, t.Z, t.X, flipY(t)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) Put(tile Tile) error {
	_, err := s.db.Exec(`INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(zoom_level, tile_column, tile_row) DO UPDATE SET tile_data = excluded.tile_data`,
		tile.T.Z, tile.T.X, flipY(tile.T), tile.C)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
