package aggregate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DuplicateMode selects how colliding names are keyed.
type DuplicateMode string

const (
	// ModeShared stores every duplicate of a name under one suffixed key, so
	// only the last duplicate survives there.
	ModeShared DuplicateMode = "shared"
	// ModeNumbered gives each further duplicate its own numbered key.
	ModeNumbered DuplicateMode = "numbered"
)

const (
	DefaultSuffix  = "_DUPLICATE"
	DefaultWorkers = 4
)

// DefaultReservedNames lists filesystem metadata entries that are never indexed.
var DefaultReservedNames = []string{".DS_Store"}

// Options tunes an Aggregator.
type Options struct {
	Mode          DuplicateMode
	Suffix        string
	ReservedNames []string
	Workers       int
}

// Result holds the merged entries and the diagnostics gathered while merging.
type Result struct {
	Entries    map[string]model.IndexEntry
	Collisions []model.CollisionEvent
	Warnings   []error
}

// Aggregator merges the direct children of several archive roots into one
// name-keyed collection.
type Aggregator struct {
	mode     DuplicateMode
	suffix   string
	workers  int
	reserved map[string]struct{}
}

// New validates the options and builds an Aggregator.
func New(opts Options) (*Aggregator, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModeShared
	}
	if mode != ModeShared && mode != ModeNumbered {
		return nil, fmt.Errorf("unknown duplicate mode %q", mode)
	}
	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	names := opts.ReservedNames
	if names == nil {
		names = DefaultReservedNames
	}
	reserved := make(map[string]struct{}, len(names))
	for _, name := range names {
		reserved[name] = struct{}{}
	}
	return &Aggregator{mode: mode, suffix: suffix, workers: workers, reserved: reserved}, nil
}

type child struct {
	name string
	path string
}

type volumeListing struct {
	label    string
	root     string
	children []child
	warnings []error
	err      error
}

// Aggregate lists every volume root and merges the children in label order.
// Listing runs in parallel; merging does not, so collision resolution only
// depends on the sorted labels and the sorted directory listings.
func (a *Aggregator) Aggregate(ctx context.Context, volumes map[string]string) (*Result, error) {
	labels := make([]string, 0, len(volumes))
	for label := range volumes {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	listings := make([]volumeListing, len(labels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, label := range labels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			listings[i] = a.listVolume(label, volumes[label])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := logutil.GetLogger(ctx)
	res := &Result{Entries: make(map[string]model.IndexEntry)}
	for _, listing := range listings {
		if listing.err != nil {
			logger.Warn("skip volume", zap.String("label", listing.label), zap.String("path", listing.root), zap.Error(listing.err))
			res.Warnings = append(res.Warnings, listing.err)
			continue
		}
		for _, w := range listing.warnings {
			logger.Warn("skip entry", zap.String("label", listing.label), zap.Error(w))
			res.Warnings = append(res.Warnings, w)
		}
		for _, item := range listing.children {
			a.merge(ctx, res, listing.label, item)
		}
		logger.Debug("volume merged",
			zap.String("label", listing.label),
			zap.Int("children", len(listing.children)),
		)
	}
	return res, nil
}

func (a *Aggregator) listVolume(label, root string) volumeListing {
	listing := volumeListing{label: label, root: root}
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		listing.err = &VolumeListingError{Label: label, Path: root, Err: err}
		return listing
	}
	listing.children = make([]child, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if _, ok := a.reserved[name]; ok {
			continue
		}
		full := filepath.Join(root, name)
		resolved, err := resolvePath(full)
		if err != nil {
			listing.warnings = append(listing.warnings, &EntryResolutionError{Label: label, Name: name, Path: full, Err: err})
			continue
		}
		listing.children = append(listing.children, child{name: name, path: resolved})
	}
	return listing
}

func (a *Aggregator) merge(ctx context.Context, res *Result, label string, item child) {
	existing, ok := res.Entries[item.name]
	if !ok {
		res.Entries[item.name] = model.IndexEntry{
			Name:         item.name,
			ResolvedPath: item.path,
			OriginLabel:  label,
		}
		return
	}

	alias := a.aliasKey(res.Entries, item.name)
	event := model.CollisionEvent{
		Name:                item.name,
		ExistingOriginLabel: existing.OriginLabel,
		IncomingOriginLabel: label,
		AliasKey:            alias,
	}
	res.Collisions = append(res.Collisions, event)
	if prev, taken := res.Entries[alias]; taken {
		logutil.GetLogger(ctx).Warn("duplicate alias overwritten",
			zap.String("alias", alias),
			zap.String("previous_label", prev.OriginLabel),
			zap.String("label", label),
		)
	}
	res.Entries[alias] = model.IndexEntry{
		Name:             alias,
		ResolvedPath:     item.path,
		OriginLabel:      label,
		IsDuplicateAlias: true,
	}
}

func (a *Aggregator) aliasKey(entries map[string]model.IndexEntry, name string) string {
	key := name + a.suffix
	if a.mode == ModeShared {
		return key
	}
	for n := 2; ; n++ {
		if _, taken := entries[key]; !taken {
			return key
		}
		key = fmt.Sprintf("%s%s_%d", name, a.suffix, n)
	}
}

func resolvePath(path string) (string, error) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(target)
}
