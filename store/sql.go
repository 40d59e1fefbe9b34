package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mbolis/national-dialog/model"
)

type sqlUsers struct {
	db *sql.DB
}

func (s *sqlUsers) Load(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, phone, email, timestamp
		FROM user
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u := model.User{}
		if err := rows.Scan(&u.Name, &u.Phone, &u.Email, &u.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: users: %v", ErrCorrupt, err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *sqlUsers) Append(ctx context.Context, u model.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user (name, phone, email, timestamp)
		VALUES (?, ?, ?, ?)`,
		u.Name, u.Phone, u.Email, u.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("store: insert user: %w", err)
	}
	return nil
}

type sqlBlog struct {
	db *sql.DB
}

func (s *sqlBlog) Load(ctx context.Context) ([]model.BlogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			user_name, user_phone, user_email, user_timestamp,
			form, responses, timestamp
		FROM blog_entry
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: query blog: %w", err)
	}
	defer rows.Close()

	entries := []model.BlogEntry{}
	for rows.Next() {
		e := model.BlogEntry{}
		var responses string
		err := rows.Scan(
			&e.User.Name, &e.User.Phone, &e.User.Email, &e.User.Timestamp,
			&e.Form, &responses, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: blog: %v", ErrCorrupt, err)
		}
		if err := json.Unmarshal([]byte(responses), &e.Responses); err != nil {
			return nil, fmt.Errorf("%w: blog responses: %v", ErrCorrupt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *sqlBlog) Append(ctx context.Context, e model.BlogEntry) error {
	responses, err := json.Marshal(e.Responses)
	if err != nil {
		return fmt.Errorf("store: encode responses: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blog_entry (
			user_name, user_phone, user_email, user_timestamp,
			form, responses, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.User.Name, e.User.Phone, e.User.Email, e.User.Timestamp,
		e.Form, string(responses), e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("store: insert blog entry: %w", err)
	}
	return nil
}

type sqlPolls struct {
	db *sql.DB
}

func (s *sqlPolls) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT value FROM poll_sample ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: query polls: %w", err)
	}
	defer rows.Close()

	samples := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: polls: %v", ErrCorrupt, err)
		}
		samples = append(samples, v)
	}
	return samples, rows.Err()
}

func (s *sqlPolls) Append(ctx context.Context, v string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO poll_sample (value) VALUES (?)`, v)
	if err != nil {
		return fmt.Errorf("store: insert poll sample: %w", err)
	}
	return nil
}
