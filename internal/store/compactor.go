package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/Aman-CERP/archive/internal/embed"
	archerrors "github.com/Aman-CERP/archive/internal/errors"
)

// CompactionResult reports the outcome of compacting a single provider's
// embedding fragments into one consolidated file.
type CompactionResult struct {
	Provider    string
	FilesMerged int
	TotalRows   int
	OutputPath  string
}

// ProviderStatus reports whether a provider's embeddings are consolidated
// or still fragmented across per-conversation files.
type ProviderStatus struct {
	Provider     string
	Consolidated bool
	FileCount    int
	RowCount     int
}

// Compactor merges per-conversation embedding files into one consolidated
// file per provider. It takes a cross-process advisory lock on
// <data_dir>/.compaction.lock so two concurrent compactions never
// interleave. The pipeline does not take this lock, so a pipeline run
// concurrent with a compaction is not serialized against it.
type Compactor struct {
	dataDir string
}

// NewCompactor creates a Compactor rooted at dataDir.
func NewCompactor(dataDir string) *Compactor {
	return &Compactor{dataDir: dataDir}
}

func (c *Compactor) lockPath() string {
	return filepath.Join(c.dataDir, ".compaction.lock")
}

// NeedsCompaction reports whether a provider still has a fragmented
// per-conversation embeddings directory.
func (c *Compactor) NeedsCompaction(provider string) bool {
	info, err := os.Stat(c.fragmentDir(provider))
	return err == nil && info.IsDir()
}

func (c *Compactor) fragmentDir(provider string) string {
	return filepath.Join(c.dataDir, "embeddings", provider)
}

// Compact consolidates one provider's embedding fragments. It is a no-op
// (returns a result with only Provider set, FilesMerged=0) if there is nothing to
// do, which makes repeat calls idempotent.
func (c *Compactor) Compact(provider string) (CompactionResult, error) {
	lock := embed.NewFileLockAt(c.lockPath())
	if err := lock.Lock(); err != nil {
		return CompactionResult{}, archerrors.PersistError("compaction_lock_failed", err.Error(), err)
	}
	defer lock.Unlock()

	fragmentDir := c.fragmentDir(provider)
	if info, err := os.Stat(fragmentDir); err != nil || !info.IsDir() {
		return CompactionResult{Provider: provider}, nil
	}

	files, err := filepath.Glob(filepath.Join(fragmentDir, "*.parquet"))
	if err != nil {
		return CompactionResult{}, archerrors.PersistError("glob_failed", err.Error(), err)
	}
	if len(files) == 0 {
		return CompactionResult{Provider: provider}, nil
	}
	sort.Strings(files)

	outPath := ConsolidatedEmbeddingPath(c.dataDir, provider)
	tmpPath := outPath + ".tmp"
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return CompactionResult{}, archerrors.PersistError("mkdir_failed", err.Error(), err)
	}

	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return CompactionResult{}, archerrors.PersistError("open_failed", err.Error(), err)
	}

	writer := parquet.NewGenericWriter[embeddingRow](out, parquet.Compression(&parquet.Zstd))

	totalRows := 0
	for _, src := range files {
		rows, err := readParquet[embeddingRow](src)
		if err != nil {
			_ = writer.Close()
			_ = out.Close()
			_ = os.Remove(tmpPath)
			return CompactionResult{}, fmt.Errorf("reading fragment %s: %w", src, err)
		}
		if _, err := writer.Write(rows); err != nil {
			_ = writer.Close()
			_ = out.Close()
			_ = os.Remove(tmpPath)
			return CompactionResult{}, archerrors.PersistError("merge_write_failed", err.Error(), err)
		}
		totalRows += len(rows)
	}

	if err := writer.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return CompactionResult{}, archerrors.PersistError("close_failed", err.Error(), err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return CompactionResult{}, archerrors.PersistError("fsync_failed", err.Error(), err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return CompactionResult{}, archerrors.PersistError("close_failed", err.Error(), err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return CompactionResult{}, archerrors.PersistError("rename_failed", err.Error(), err)
	}

	if err := os.RemoveAll(fragmentDir); err != nil {
		return CompactionResult{}, archerrors.PersistError("fragment_cleanup_failed", err.Error(), err)
	}

	return CompactionResult{
		Provider:    provider,
		FilesMerged: len(files),
		TotalRows:   totalRows,
		OutputPath:  outPath,
	}, nil
}

// Status reports the compaction state of one provider.
func (c *Compactor) Status(provider string) (ProviderStatus, error) {
	status := ProviderStatus{Provider: provider}

	if c.NeedsCompaction(provider) {
		files, err := filepath.Glob(filepath.Join(c.fragmentDir(provider), "*.parquet"))
		if err != nil {
			return status, archerrors.PersistError("glob_failed", err.Error(), err)
		}
		rows := 0
		for _, f := range files {
			r, err := readParquet[embeddingRow](f)
			if err != nil {
				return status, err
			}
			rows += len(r)
		}
		status.FileCount = len(files)
		status.RowCount = rows
		return status, nil
	}

	consolidated := ConsolidatedEmbeddingPath(c.dataDir, provider)
	if _, err := os.Stat(consolidated); err == nil {
		rows, err := readParquet[embeddingRow](consolidated)
		if err != nil {
			return status, err
		}
		status.Consolidated = true
		status.FileCount = 1
		status.RowCount = len(rows)
	}
	return status, nil
}
