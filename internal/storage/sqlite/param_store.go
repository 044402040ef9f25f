package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/pc2draco/internal/monitoring"
)

// Param is one row of the params table.
type Param struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Kind      string `json:"kind"`
	UpdatedAt int64  `json:"updated_at"`
}

// ParamStore is a persistent parameter store for attribute overrides. Its
// GetString/GetBool methods satisfy pointcloud.ParamStore; read errors are
// logged and reported as a miss.
type ParamStore struct {
	db *sql.DB
}

// NewParamStore creates a new ParamStore.
func NewParamStore(db *sql.DB) *ParamStore {
	return &ParamStore{db: db}
}

func normalizeKey(key string) string {
	if strings.HasPrefix(key, "/") {
		return key
	}
	return "/" + key
}

// SetString stores a string parameter, replacing any previous value.
func (s *ParamStore) SetString(key, value string) error {
	return s.set(key, value, "string")
}

// SetBool stores a boolean parameter, replacing any previous value.
func (s *ParamStore) SetBool(key string, value bool) error {
	return s.set(key, strconv.FormatBool(value), "bool")
}

func (s *ParamStore) set(key, value, kind string) error {
	_, err := s.db.Exec(`
		INSERT INTO params (key, value, kind, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, kind = excluded.kind, updated_at = excluded.updated_at
	`, normalizeKey(key), value, kind, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("set param %q: %w", key, err)
	}
	return nil
}

// Get returns the raw row for key. The bool is false if the key is absent.
func (s *ParamStore) Get(key string) (*Param, bool, error) {
	p := &Param{}
	err := s.db.QueryRow(`SELECT key, value, kind, updated_at FROM params WHERE key = ?`, normalizeKey(key)).
		Scan(&p.Key, &p.Value, &p.Kind, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get param %q: %w", key, err)
	}
	return p, true, nil
}

// GetString returns a string parameter.
func (s *ParamStore) GetString(key string) (string, bool) {
	p, ok, err := s.Get(key)
	if err != nil {
		monitoring.Logf("param store: %v", err)
		return "", false
	}
	if !ok || p.Kind != "string" {
		return "", false
	}
	return p.Value, true
}

// GetBool returns a boolean parameter.
func (s *ParamStore) GetBool(key string) (bool, bool) {
	p, ok, err := s.Get(key)
	if err != nil {
		monitoring.Logf("param store: %v", err)
		return false, false
	}
	if !ok || p.Kind != "bool" {
		return false, false
	}
	v, err := strconv.ParseBool(p.Value)
	if err != nil {
		return false, false
	}
	return v, true
}

// List returns all parameters whose key starts with prefix, ordered by key.
func (s *ParamStore) List(prefix string) ([]*Param, error) {
	rows, err := s.db.Query(`
		SELECT key, value, kind, updated_at FROM params
		WHERE substr(key, 1, length(?)) = ?
		ORDER BY key
	`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list params: %w", err)
	}
	defer rows.Close()

	var params []*Param
	for rows.Next() {
		p := &Param{}
		if err := rows.Scan(&p.Key, &p.Value, &p.Kind, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan param: %w", err)
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

// Delete removes a parameter. Deleting a missing key is not an error.
func (s *ParamStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM params WHERE key = ?`, normalizeKey(key)); err != nil {
		return fmt.Errorf("delete param %q: %w", key, err)
	}
	return nil
}
