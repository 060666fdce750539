// Package config loads the shim's JSON configuration file.
// Keys use dot notation for nested objects (e.g. "history.path").
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tidwall/gjson"
)

// EnvPath names the environment variable that points at the config file
const EnvPath = "LOOT_SHIM_CONFIG"

// FileName is the default config file name
const FileName = "loot_shim.json"

// ErrNotObject is returned for a config document that is valid JSON but not an object
var ErrNotObject = errors.New("config: document is not a JSON object")

// Config is a loaded configuration document
type Config struct {
	path string
	doc  gjson.Result
}

// Load loads a JSON configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("config: %s is not valid JSON", path)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() && doc.Type != gjson.Null {
		return nil, ErrNotObject
	}
	return &Config{path: path, doc: doc}, nil
}

// LoadOrDefault loads a config file, returning an empty config if it can't be read
func LoadOrDefault(path string) *Config {
	c, err := Load(path)
	if err != nil {
		return &Config{path: path}
	}
	return c
}

// FindPath returns the config file to use: $LOOT_SHIM_CONFIG if set, otherwise the
// first existing candidate, otherwise the first candidate.
func FindPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}

	paths := []string{FileName, filepath.Join("configs", FileName)}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "lootshim", FileName))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return paths[0]
}

func (c *Config) lookup(key string) (gjson.Result, bool) {
	if c == nil || !c.doc.Exists() {
		return gjson.Result{}, false
	}
	r := c.doc.Get(key)
	return r, r.Exists()
}

// Has reports whether key is present
func (c *Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// GetString returns a string, number or bool value as text
func (c *Config) GetString(key string, defaultVal string) string {
	r, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return r.String()
	}
	return defaultVal
}

// GetInt returns a number, or a string holding an integer
func (c *Config) GetInt(key string, defaultVal int) int {
	r, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	switch r.Type {
	case gjson.Number:
		return int(r.Num)
	case gjson.String:
		if i, err := strconv.Atoi(r.Str); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetBool returns a bool, a string holding a bool, or whether a number is non-zero
func (c *Config) GetBool(key string, defaultVal bool) bool {
	r, ok := c.lookup(key)
	if !ok {
		return defaultVal
	}
	switch r.Type {
	case gjson.True, gjson.False, gjson.Number:
		return r.Bool()
	case gjson.String:
		if b, err := strconv.ParseBool(r.Str); err == nil {
			return b
		}
	}
	return defaultVal
}
