// Package store is the device-local storage of studyplan: the cached planner
// state of each user, the persisted session, sign-in lockout counters and UI
// preferences. Nothing here is pushed remotely.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/studyplan/pkg/planner"
)

const (
	statePrefix = "state"
	themeKey    = "prefs/theme"
	tempDir     = ".tmp"

	// LocalUser keys the state of a device with nobody signed in.
	LocalUser = "local"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("store: key not found")

// Persistence defines the device storage contract. Keys are "/" separated,
// e.g. "state/<user id>" or "auth/session".
type Persistence interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Keys(ctx context.Context, prefix string) []string
	LoadState(userID string) (planner.State, bool, error)
	SaveState(userID string, st planner.State) error
	Theme() string
	SetTheme(theme string) error
	Watch(ctx context.Context) (<-chan Event, error)
}

// Load creates a Persistence backed by diskv under cfg's base path.
func Load(cfg Config) (Persistence, error) {
	if cfg == nil || cfg.BasePath() == "" {
		return nil, errors.New("store: base path unknown")
	}
	basePath := cfg.BasePath()
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &persistence{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		TempDir:           filepath.Join(basePath, tempDir),
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      0, // other processes write the same files
		FilePerm:          0o600,
		PathPerm:          0o700,
	}), basePath: basePath}, nil
}

type persistence struct {
	d        *diskv.Diskv
	basePath string
}

func (p *persistence) Get(key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	if !p.d.Has(key) {
		return nil, ErrNotFound
	}
	return p.d.Read(key)
}

func (p *persistence) Put(key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	return p.d.Write(key, value)
}

func (p *persistence) Delete(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if !p.d.Has(key) {
		return nil
	}
	return p.d.Erase(key)
}

func (p *persistence) Keys(ctx context.Context, prefix string) []string {
	var keys []string
	for key := range p.d.KeysPrefix(prefix, ctx.Done()) {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// LoadState returns the cached state of userID. ok is false when nothing is
// cached yet.
func (p *persistence) LoadState(userID string) (planner.State, bool, error) {
	b, err := p.Get(stateKey(userID))
	if errors.Is(err, ErrNotFound) {
		return planner.Default(), false, nil
	}
	if err != nil {
		return planner.Default(), false, err
	}
	var st planner.State
	if err := json.Unmarshal(b, &st); err != nil {
		return planner.Default(), false, fmt.Errorf("store: decode state of %s: %w", userID, err)
	}
	return st, true, nil
}

// SaveState caches the state of userID.
func (p *persistence) SaveState(userID string, st planner.State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}
	return p.Put(stateKey(userID), b)
}

func (p *persistence) Theme() string {
	b, err := p.Get(themeKey)
	if err != nil {
		return ""
	}
	return string(b)
}

func (p *persistence) SetTheme(theme string) error {
	return p.Put(themeKey, []byte(theme))
}

func stateKey(userID string) string {
	if userID == "" {
		userID = LocalUser
	}
	return statePrefix + "/" + userID
}

// StateUser returns the user id of a state key. ok is false for other keys.
func StateUser(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, statePrefix+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

func validKey(key string) error {
	if key == "" {
		return errors.New("store: empty key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." || strings.HasPrefix(part, ".") || strings.ContainsRune(part, os.PathSeparator) {
			return fmt.Errorf("store: invalid key %q", key)
		}
	}
	return nil
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s/%s", strings.Join(pathKey.Path, "/"), pathKey.FileName)
}
