package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/mbolis/national-dialog/model"
)

var usersCSVHeader = []string{"name", "phone", "email", "timestamp"}

// CSVMirror wraps the users collection and rewrites a CSV export of the full
// collection after every append.
type CSVMirror struct {
	Collection[model.User]
	path string
}

func WithCSVMirror(users Collection[model.User], path string) *CSVMirror {
	return &CSVMirror{Collection: users, path: path}
}

func (m *CSVMirror) Path() string {
	return m.path
}

func (m *CSVMirror) Append(ctx context.Context, u model.User) error {
	if err := m.Collection.Append(ctx, u); err != nil {
		return err
	}

	users, err := m.Collection.Load(ctx)
	if err != nil {
		return err
	}
	data, err := EncodeUsersCSV(users)
	if err != nil {
		return err
	}
	return writeFile(m.path, data)
}

func EncodeUsersCSV(users []model.User) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write(usersCSVHeader)
	for _, u := range users {
		w.Write([]string{u.Name, u.Phone, u.Email, u.Timestamp.Format(time.RFC3339Nano)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("store: encode users csv: %w", err)
	}
	return buf.Bytes(), nil
}
