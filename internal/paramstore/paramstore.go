// Package paramstore holds in-memory parameter stores for attribute
// overrides. Keys are slash-separated paths such as
// "/points/draco/attribute_mapping/attribute_type/rgb"; a missing leading
// slash is added on every read and write.
package paramstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MapStore is a concurrency-safe in-memory parameter store.
type MapStore struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewMapStore returns an empty store.
func NewMapStore() *MapStore {
	return &MapStore{values: make(map[string]interface{})}
}

func normalizeKey(key string) string {
	if strings.HasPrefix(key, "/") {
		return key
	}
	return "/" + key
}

// Set stores a string or bool value. Other types are rejected.
func (s *MapStore) Set(key string, value interface{}) error {
	switch value.(type) {
	case string, bool:
	default:
		return fmt.Errorf("param %q: unsupported value type %T", key, value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[normalizeKey(key)] = value
	return nil
}

// GetString returns the string stored at key.
func (s *MapStore) GetString(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[normalizeKey(key)].(string)
	return v, ok
}

// GetBool returns the bool stored at key. The strings "true" and "false"
// are accepted as well, matching how parameter servers often serialise.
func (s *MapStore) GetBool(key string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch v := s.values[normalizeKey(key)].(type) {
	case bool:
		return v, true
	case string:
		switch v {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// Keys returns all keys in sorted order.
func (s *MapStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored keys.
func (s *MapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

const maxParamFileSize = 1 * 1024 * 1024 // 1MB

// LoadJSONFile reads a parameter file into a new MapStore.
//
// The document is a JSON object. Nested objects are flattened by joining
// keys with "/", so both of these set the same parameter:
//
//	{"/points/draco/attribute_mapping/attribute_type/rgb": "COLOR"}
//	{"points": {"draco": {"attribute_mapping": {"attribute_type": {"rgb": "COLOR"}}}}}
//
// Leaf values must be strings or booleans.
func LoadJSONFile(path string) (*MapStore, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("param file must have .json extension, got %q", ext)
	}
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat param file: %w", err)
	}
	if fileInfo.Size() > maxParamFileSize {
		return nil, fmt.Errorf("param file too large: %d bytes (max %d)", fileInfo.Size(), maxParamFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read param file: %w", err)
	}
	return ParseJSON(data)
}

// ParseJSON builds a MapStore from a parameter document; see LoadJSONFile.
func ParseJSON(data []byte) (*MapStore, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse param JSON: %w", err)
	}
	s := NewMapStore()
	if err := s.flatten("", doc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MapStore) flatten(prefix string, doc map[string]interface{}) error {
	for k, v := range doc {
		key := strings.TrimSuffix(prefix, "/") + normalizeKey(k)
		switch val := v.(type) {
		case map[string]interface{}:
			if err := s.flatten(key, val); err != nil {
				return err
			}
		case string, bool:
			if err := s.Set(key, val); err != nil {
				return err
			}
		default:
			return fmt.Errorf("param %q: unsupported value %v (want string, bool or object)", key, v)
		}
	}
	return nil
}
