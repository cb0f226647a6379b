package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/ccpace/internal/kvstore"
)

const (
	favPrefix = "fav/"
	usePrefix = "use/"
)

// UsageStat is the launch history of one item.
type UsageStat struct {
	LastUsed string `json:"last_used"`
	UseCount int    `json:"use_count"`
}

// State keeps favorites and usage counters in a key-value store.
type State struct {
	kv kvstore.Store
}

// NewState returns a State backed by kv.
func NewState(kv kvstore.Store) *State {
	return &State{kv: kv}
}

// Favorites returns the set of favorite item ids.
func (s *State) Favorites(ctx context.Context) (map[string]bool, error) {
	keys, err := s.kv.Keys(ctx, favPrefix)
	if err != nil {
		return nil, err
	}
	favs := make(map[string]bool, len(keys))
	for _, k := range keys {
		favs[strings.TrimPrefix(k, favPrefix)] = true
	}
	return favs, nil
}

// IsFavorite reports whether id is a favorite.
func (s *State) IsFavorite(ctx context.Context, id string) (bool, error) {
	_, err := s.kv.Get(ctx, favPrefix+id)
	if errors.Is(err, kvstore.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// AddFavorite marks id as a favorite.
func (s *State) AddFavorite(ctx context.Context, id string) error {
	return s.kv.Set(ctx, favPrefix+id, "1")
}

// RemoveFavorite clears the favorite mark on id.
func (s *State) RemoveFavorite(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, favPrefix+id)
}

// ToggleFavorite flips the favorite mark and reports the new value.
func (s *State) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	fav, err := s.IsFavorite(ctx, id)
	if err != nil {
		return false, err
	}
	if fav {
		return false, s.RemoveFavorite(ctx, id)
	}
	return true, s.AddFavorite(ctx, id)
}

// RecordUse bumps the use count of id and stamps its last use.
func (s *State) RecordUse(ctx context.Context, id string, now time.Time) (UsageStat, error) {
	stat, err := s.usage(ctx, id)
	if err != nil {
		return UsageStat{}, err
	}
	stat.UseCount++
	stat.LastUsed = now.UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(stat)
	if err != nil {
		return UsageStat{}, err
	}
	if err := s.kv.Set(ctx, usePrefix+id, string(data)); err != nil {
		return UsageStat{}, err
	}
	return stat, nil
}

func (s *State) usage(ctx context.Context, id string) (UsageStat, error) {
	var stat UsageStat
	v, err := s.kv.Get(ctx, usePrefix+id)
	if errors.Is(err, kvstore.ErrNotFound) {
		return stat, nil
	}
	if err != nil {
		return stat, err
	}
	if err := json.Unmarshal([]byte(v), &stat); err != nil {
		return UsageStat{}, fmt.Errorf("registry: decoding usage for %s: %w", id, err)
	}
	return stat, nil
}

// Usage returns the usage stats of every item that has been launched.
func (s *State) Usage(ctx context.Context) (map[string]UsageStat, error) {
	keys, err := s.kv.Keys(ctx, usePrefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]UsageStat, len(keys))
	for _, k := range keys {
		id := strings.TrimPrefix(k, usePrefix)
		stat, err := s.usage(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = stat
	}
	return out, nil
}

// ApplyUsage overlays recorded stats onto items whose own counters are
// lower, returning a new slice.
func ApplyUsage(items []Item, stats map[string]UsageStat) []Item {
	out := append([]Item(nil), items...)
	for i := range out {
		st, ok := stats[out[i].ID]
		if !ok {
			continue
		}
		if st.UseCount > out[i].UseCount {
			out[i].UseCount = st.UseCount
		}
		if parseTime(st.LastUsed).After(parseTime(out[i].LastUsed)) {
			out[i].LastUsed = st.LastUsed
		}
	}
	return out
}

// ImportLegacy copies the standalone usage and favorites files from dir into
// the store. Existing keys win. It reports how many entries were imported.
func (s *State) ImportLegacy(ctx context.Context, dir string) (int, error) {
	imported := 0

	var favs []string
	if ok, err := readJSON(filepath.Join(dir, FavoritesFile), &favs); err != nil {
		return imported, err
	} else if ok {
		for _, id := range favs {
			if id == "" {
				continue
			}
			if fav, err := s.IsFavorite(ctx, id); err != nil {
				return imported, err
			} else if fav {
				continue
			}
			if err := s.AddFavorite(ctx, id); err != nil {
				return imported, err
			}
			imported++
		}
	}

	var usage map[string]UsageStat
	if ok, err := readJSON(filepath.Join(dir, UsageFile), &usage); err != nil {
		return imported, err
	} else if ok {
		for id, stat := range usage {
			if _, err := s.kv.Get(ctx, usePrefix+id); err == nil {
				continue
			} else if !errors.Is(err, kvstore.ErrNotFound) {
				return imported, err
			}
			data, err := json.Marshal(stat)
			if err != nil {
				return imported, err
			}
			if err := s.kv.Set(ctx, usePrefix+id, string(data)); err != nil {
				return imported, err
			}
			imported++
		}
	}
	return imported, nil
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("registry: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("registry: parsing %s: %w", path, err)
	}
	return true, nil
}
