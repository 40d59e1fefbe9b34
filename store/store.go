// Package store persists the three record collections: users, blog entries and
// poll samples.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mbolis/national-dialog/model"
)

const (
	UsersFile    = "users.json"
	UsersCSVFile = "users.csv"
	BlogFile     = "blog.json"
	PollsFile    = "polls.json"
)

// ErrCorrupt is returned by Load when the durable data cannot be decoded.
var ErrCorrupt = errors.New("store: corrupt collection")

// Collection is an append-only, ordered sequence of records.
//
// Append rewrites the whole collection; two concurrent appends may lose one of
// the records.
type Collection[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Append(ctx context.Context, rec T) error
}

type Stores struct {
	Users Collection[model.User]
	Blog  Collection[model.BlogEntry]
	Polls Collection[string]
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create data dir: %w", err)
	}
	return nil
}

// OpenFiles returns JSON file backed collections inside dir, creating dir if needed.
func OpenFiles(dir string) (Stores, error) {
	if err := ensureDir(dir); err != nil {
		return Stores{}, err
	}

	return Stores{
		Users: WithCSVMirror(
			NewFileCollection[model.User](filepath.Join(dir, UsersFile)),
			filepath.Join(dir, UsersCSVFile),
		),
		Blog:  NewFileCollection[model.BlogEntry](filepath.Join(dir, BlogFile)),
		Polls: NewFileCollection[string](filepath.Join(dir, PollsFile)),
	}, nil
}

// OpenSQL returns SQLite backed collections. The users CSV mirror is still
// written inside dir.
func OpenSQL(db *sql.DB, dir string) (Stores, error) {
	if err := ensureDir(dir); err != nil {
		return Stores{}, err
	}

	return Stores{
		Users: WithCSVMirror(&sqlUsers{db}, filepath.Join(dir, UsersCSVFile)),
		Blog:  &sqlBlog{db},
		Polls: &sqlPolls{db},
	}, nil
}
