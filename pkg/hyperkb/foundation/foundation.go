// Package foundation loads foundation packs (YAML or JSON files of edges
// with attributes) into a store, and provides the bulk upsert they build
// on.
package foundation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
)

// Entry is one edge of a pack: its textual form plus attributes.
type Entry struct {
	S     string            `yaml:"s" json:"s"`
	Attrs map[string]string `yaml:"attrs" json:"attrs"`
}

// Pack is the file layout of a foundation pack. Rules, Edges and Facts are
// equivalent lists; the split is for human organization only.
type Pack struct {
	Name    string  `yaml:"name" json:"name"`
	Version string  `yaml:"version" json:"version"`
	Rules   []Entry `yaml:"rules" json:"rules"`
	Edges   []Entry `yaml:"edges" json:"edges"`
	Facts   []Entry `yaml:"facts" json:"facts"`
}

// EntryError records a single failed entry of a bulk operation.
type EntryError struct {
	Edge string
	Err  string
}

// Result reports bulk-load statistics.
type Result struct {
	Inserted int
	Updated  int
	Skipped  int
	Errors   []EntryError
}

// LoadFile reads a pack from disk (format detected by extension, YAML
// unless .json) and upserts its entries.
func LoadFile(ctx context.Context, st store.Store, path string, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("load pack: %w", err)
	}

	var pack Pack
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &pack)
	} else {
		err = yaml.Unmarshal(data, &pack)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}

	entries := make([]Entry, 0, len(pack.Rules)+len(pack.Edges)+len(pack.Facts))
	entries = append(entries, pack.Rules...)
	entries = append(entries, pack.Edges...)
	entries = append(entries, pack.Facts...)

	result, err := BulkAdd(ctx, st, entries, true)
	if err != nil {
		return result, err
	}

	logger.Info("foundation pack loaded",
		zap.String("path", path),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// BulkAdd adds entries to the store. Per-entry failures are captured in the
// result rather than aborting the batch; only cancellation stops it early.
func BulkAdd(ctx context.Context, st store.Store, entries []Entry, upsert bool) (Result, error) {
	var result Result

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if entry.S == "" {
			result.Errors = append(result.Errors, EntryError{Err: "missing edge text"})
			continue
		}

		e, err := edge.Parse(entry.S)
		if err != nil {
			result.Errors = append(result.Errors, EntryError{Edge: entry.S, Err: err.Error()})
			continue
		}

		exists, err := st.Exists(ctx, e)
		if err != nil {
			result.Errors = append(result.Errors, EntryError{Edge: entry.S, Err: err.Error()})
			continue
		}
		if exists && !upsert {
			result.Skipped++
			continue
		}

		if err := st.Add(ctx, e, store.Attributes(entry.Attrs)); err != nil {
			result.Errors = append(result.Errors, EntryError{Edge: entry.S, Err: err.Error()})
			continue
		}

		if exists {
			result.Updated++
		} else {
			result.Inserted++
		}
	}

	return result, nil
}
