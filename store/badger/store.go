// Package badger provides a local, embedded VectorStore backed by
// BadgerDB. It is a drop-in stand-in for the Qdrant client in
// single-node deployments and in tests that need a real store without
// a running vector database.
package badger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/chattydevs/core/core"
	"github.com/chattydevs/core/store"
)

// Key prefixes for the two keyspaces: point records and the
// per-project secondary index used by scans.
const (
	pointPrefix   = "pt"
	projectPrefix = "pj"
)

// Store is a BadgerDB-backed VectorStore.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ store.VectorStore = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist. With inMemory set the
// path is ignored and nothing is persisted.
func Open(filePath string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes every point and its project index entry in a single
// transaction. Points with the same ID are overwritten.
func (s *Store) Upsert(ctx context.Context, points []core.Point) error {
	if len(points) == 0 {
		return nil
	}
	return s.db.Update(func(tx *badger.Txn) error {
		for _, p := range points {
			if err := ctx.Err(); err != nil {
				return err
			}
			// An empty ProjectID or ID would corrupt the key scheme.
			if err := core.ValidatePoint(&p); err != nil {
				return err
			}
			val, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("marshaling point %s: %w", p.ID, err)
			}
			if err := tx.Set(makePointKey(p.ID), val); err != nil {
				return err
			}
			if err := tx.Set(makeProjectKey(p.Payload.ProjectID, p.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScrollIDs returns up to limit point IDs belonging to projectID,
// along with an opaque cursor for the next page. An empty cursor in
// the result means the scan is complete.
func (s *Store) ScrollIDs(ctx context.Context, projectID string, limit int, cursor string) ([]string, string, error) {
	prefix := makeProjectKeyPrefix(projectID)

	start := prefix
	if cursor != "" {
		last, err := base64.StdEncoding.DecodeString(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("%w: malformed scroll cursor", core.ErrValidation)
		}
		start = last
	}

	var (
		ids     []string
		lastKey []byte
		more    bool
	)
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(start); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := iter.Item().KeyCopy(nil)
			// The cursor names the last key already returned.
			if cursor != "" && string(key) == string(start) {
				continue
			}
			if len(ids) == limit {
				more = true
				return nil
			}
			ids = append(ids, pointIDFromProjectKey(projectID, key))
			lastKey = key
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	next := ""
	if more {
		next = base64.StdEncoding.EncodeToString(lastKey)
	}
	return ids, next, nil
}

// DeletePoints removes the named points and their project index
// entries. Unknown IDs are ignored.
func (s *Store) DeletePoints(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.Update(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makePointKey(id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			var p core.Point
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return err
			}
			if err := tx.Delete(makePointKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeProjectKey(p.Payload.ProjectID, id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// makePointKey generates the primary key for a point record.
func makePointKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", pointPrefix, id))
}

// makeProjectKey generates a composite key for the project index.
// Format: prefix:projectID:pointID
func makeProjectKey(projectID, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", projectPrefix, projectID, id))
}

// makeProjectKeyPrefix generates the iteration prefix for a project.
func makeProjectKeyPrefix(projectID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", projectPrefix, projectID))
}

// pointIDFromProjectKey recovers the point ID from a project index key.
func pointIDFromProjectKey(projectID string, key []byte) string {
	return string(key[len(makeProjectKeyPrefix(projectID)):])
}
