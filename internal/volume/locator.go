package volume

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/model"
	"go.uber.org/zap"
)

// DiscoveryError reports that the scan root itself could not be traversed.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover volumes under %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Locate finds every directory named archiveName exactly two levels below
// scanRoot (<scanRoot>/<mount>/<archiveName>) and returns them keyed by the
// mount directory name. A later match for the same label replaces an earlier
// one. Mounts that cannot be read are logged and skipped.
func Locate(ctx context.Context, scanRoot, archiveName string) (map[string]string, error) {
	logger := logutil.GetLogger(ctx)

	root, err := filepath.Abs(scanRoot)
	if err != nil {
		return nil, &DiscoveryError{Root: scanRoot, Err: err}
	}
	mounts, err := os.ReadDir(root)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}

	result := make(map[string]string)
	for _, mount := range mounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Symlinked mounts are not descended, matching a physical traversal.
		if !mount.IsDir() {
			continue
		}
		mountPath := filepath.Join(root, mount.Name())
		children, err := os.ReadDir(mountPath)
		if err != nil {
			logger.Warn("skip unreadable mount",
				zap.String("label", mount.Name()),
				zap.String("path", mountPath),
				zap.Error(err),
			)
			continue
		}
		for _, child := range children {
			if child.Name() != archiveName || !child.IsDir() {
				continue
			}
			label := mount.Name()
			archivePath := filepath.Join(mountPath, child.Name())
			if prev, ok := result[label]; ok {
				logger.Warn("volume label reused, keeping latest match",
					zap.String("label", label),
					zap.String("previous", prev),
					zap.String("current", archivePath),
				)
			}
			result[label] = archivePath
		}
	}

	logger.Debug("volume discovery finished",
		zap.String("root", root),
		zap.String("archive_name", archiveName),
		zap.Int("volumes", len(result)),
	)
	return result, nil
}

// Records converts a locate result into records ordered by label.
func Records(volumes map[string]string) []model.VolumeRecord {
	labels := Labels(volumes)
	out := make([]model.VolumeRecord, 0, len(labels))
	for _, label := range labels {
		out = append(out, model.VolumeRecord{Label: label, RootPath: volumes[label]})
	}
	return out
}

// Labels returns the volume labels in byte-wise order.
func Labels(volumes map[string]string) []string {
	labels := make([]string, 0, len(volumes))
	for label := range volumes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
