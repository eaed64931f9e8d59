// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zoterodb reads a Zotero library straight from the desktop
// client's zotero.sqlite. The database is opened read-only and immutable so
// a running Zotero instance is never disturbed; results reflect the file as
// of the last time Zotero flushed it.
package zoterodb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/zotero-mcp/internal/zotero"
	"github.com/pdiddy/zotero-mcp/pkg/types"
)

const (
	dbFile     = "zotero.sqlite"
	storageDir = "storage"

	// storagePrefix marks attachment paths relative to storage/{key}/.
	storagePrefix = "storage:"
)

// DB is a read-only view of the user library in a Zotero data directory.
type DB struct {
	db        *sql.DB
	dataDir   string
	libraryID int64
	log       *logrus.Entry
}

var _ zotero.Library = (*DB)(nil)

// Open opens dataDir/zotero.sqlite and locates the user library.
func Open(dataDir string, log *logrus.Entry) (*DB, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	dbPath := filepath.Join(dataDir, dbFile)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("locating Zotero database: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &DB{db: db, dataDir: dataDir, log: log}
	if err := db.QueryRow(`SELECT libraryID FROM libraries WHERE type = 'user'`).Scan(&d.libraryID); err != nil {
		db.Close()
		return nil, fmt.Errorf("finding user library: %w", err)
	}
	log.WithFields(logrus.Fields{"path": dbPath, "library": d.libraryID}).Debug("opened Zotero database")
	return d, nil
}

// Close releases the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Query matches query case-insensitively against item titles and note
// bodies, newest first. Deleted items are excluded and an empty query
// matches everything.
func (d *DB) Query(ctx context.Context, limit int, query string) ([]types.RawItem, error) {
	if limit < 1 {
		limit = 1
	}
	pattern := "%" + escapeLike(query) + "%"

	rows, err := d.db.QueryContext(ctx, `
		SELECT i.key
		FROM items i
		LEFT JOIN deletedItems del ON del.itemID = i.itemID
		LEFT JOIN itemData t ON t.itemID = i.itemID
			AND t.fieldID = (SELECT fieldID FROM fields WHERE fieldName = 'title')
		LEFT JOIN itemDataValues tv ON tv.valueID = t.valueID
		LEFT JOIN itemNotes n ON n.itemID = i.itemID
		WHERE i.libraryID = ?
			AND del.itemID IS NULL
			AND (? = '' OR tv.value LIKE ? ESCAPE '\' OR n.note LIKE ? ESCAPE '\')
		ORDER BY i.dateModified DESC, i.itemID
		LIMIT ?`,
		d.libraryID, query, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item key: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	items := make([]types.RawItem, 0, len(keys))
	for _, key := range keys {
		it, err := d.Item(ctx, key)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	d.log.WithField("query", query).Infof("Search results: %d item(s) found", len(items))
	return items, nil
}

// Item rebuilds the API-shaped data mapping of one item.
func (d *DB) Item(ctx context.Context, key string) (types.RawItem, error) {
	var (
		itemID       int64
		typeName     string
		dateModified string
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT i.itemID, t.typeName, i.dateModified
		FROM items i JOIN itemTypes t ON t.itemTypeID = i.itemTypeID
		WHERE i.libraryID = ? AND i.key = ?`,
		d.libraryID, key).Scan(&itemID, &typeName, &dateModified)
	if errors.Is(err, sql.ErrNoRows) {
		return types.RawItem{}, fmt.Errorf("%w: item %s", zotero.ErrNotFound, key)
	}
	if err != nil {
		return types.RawItem{}, fmt.Errorf("loading item %s: %w", key, err)
	}

	data := map[string]any{
		"key":          key,
		"itemType":     typeName,
		"dateModified": dateModified,
	}
	if err := d.loadFields(ctx, itemID, data); err != nil {
		return types.RawItem{}, fmt.Errorf("loading fields of %s: %w", key, err)
	}
	if err := d.loadNote(ctx, itemID, data); err != nil {
		return types.RawItem{}, fmt.Errorf("loading note %s: %w", key, err)
	}
	if err := d.loadAttachment(ctx, itemID, data); err != nil {
		return types.RawItem{}, fmt.Errorf("loading attachment %s: %w", key, err)
	}
	if err := d.loadCollections(ctx, itemID, data); err != nil {
		return types.RawItem{}, fmt.Errorf("loading collections of %s: %w", key, err)
	}
	return types.RawItem{Key: key, Data: data}, nil
}

func (d *DB) loadFields(ctx context.Context, itemID int64, data map[string]any) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT f.fieldName, v.value
		FROM itemData id
		JOIN fields f ON f.fieldID = id.fieldID
		JOIN itemDataValues v ON v.valueID = id.valueID
		WHERE id.itemID = ?`, itemID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return err
		}
		data[name] = value
	}
	return rows.Err()
}

func (d *DB) loadNote(ctx context.Context, itemID int64, data map[string]any) error {
	var note string
	var parent sql.NullString
	err := d.db.QueryRowContext(ctx, `
		SELECT n.note, p.key
		FROM itemNotes n LEFT JOIN items p ON p.itemID = n.parentItemID
		WHERE n.itemID = ?`, itemID).Scan(&note, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	data["note"] = note
	if parent.Valid {
		data["parentItem"] = parent.String
	}
	return nil
}

func (d *DB) loadAttachment(ctx context.Context, itemID int64, data map[string]any) error {
	var contentType, path, parent sql.NullString
	err := d.db.QueryRowContext(ctx, `
		SELECT a.contentType, a.path, p.key
		FROM itemAttachments a LEFT JOIN items p ON p.itemID = a.parentItemID
		WHERE a.itemID = ?`, itemID).Scan(&contentType, &path, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	data["contentType"] = contentType.String
	if name, ok := strings.CutPrefix(path.String, storagePrefix); ok {
		data["filename"] = name
	}
	if parent.Valid {
		data["parentItem"] = parent.String
	}
	return nil
}

// loadCollections always sets the field, empty for unfiled and child items.
func (d *DB) loadCollections(ctx context.Context, itemID int64, data map[string]any) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT c.key
		FROM collectionItems ci JOIN collections c ON c.collectionID = ci.collectionID
		WHERE ci.itemID = ?
		ORDER BY ci.orderIndex, c.key`, itemID)
	if err != nil {
		return err
	}
	defer rows.Close()
	collections := []any{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return err
		}
		collections = append(collections, key)
	}
	data["collections"] = collections
	return rows.Err()
}

// Collection returns a collection record. Roots carry parentCollection false,
// as the web API does.
func (d *DB) Collection(ctx context.Context, key string) (types.RawCollection, error) {
	var name string
	var parent sql.NullString
	err := d.db.QueryRowContext(ctx, `
		SELECT c.collectionName, p.key
		FROM collections c LEFT JOIN collections p ON p.collectionID = c.parentCollectionID
		WHERE c.libraryID = ? AND c.key = ?`,
		d.libraryID, key).Scan(&name, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return types.RawCollection{}, fmt.Errorf("%w: collection %s", zotero.ErrNotFound, key)
	}
	if err != nil {
		return types.RawCollection{}, fmt.Errorf("loading collection %s: %w", key, err)
	}

	data := map[string]any{"key": key, "name": name, "parentCollection": false}
	if parent.Valid {
		data["parentCollection"] = parent.String
	}
	return types.RawCollection{Key: key, Data: data}, nil
}

// File reads an attachment's stored file. Imported files live under
// storage/{key}/; linked files are read from their absolute path.
func (d *DB) File(ctx context.Context, key string) ([]byte, error) {
	var path sql.NullString
	err := d.db.QueryRowContext(ctx, `
		SELECT a.path
		FROM itemAttachments a JOIN items i ON i.itemID = a.itemID
		WHERE i.libraryID = ? AND i.key = ?`,
		d.libraryID, key).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: attachment %s", zotero.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("loading attachment %s: %w", key, err)
	}

	var filePath string
	switch {
	case strings.HasPrefix(path.String, storagePrefix):
		filePath = filepath.Join(d.dataDir, storageDir, key, strings.TrimPrefix(path.String, storagePrefix))
	case filepath.IsAbs(path.String):
		filePath = path.String
	default:
		return nil, fmt.Errorf("%w: attachment %s has no local file", zotero.ErrNotFound, key)
	}

	b, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading attachment %s: %w", key, err)
	}
	d.log.WithFields(logrus.Fields{"item": key, "bytes": len(b)}).Debug("read attachment file")
	return b, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
