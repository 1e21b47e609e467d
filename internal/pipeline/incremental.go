package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/theirongolddev/cpulse/internal/source"
	"github.com/theirongolddev/cpulse/internal/store"
)

// ImportResult reports what an import wrote to the store.
type ImportResult struct {
	LoadResult
	// Skipped counts files unchanged since the last import.
	Skipped  int
	Reparsed int
}

// Import parses the exports under dir that changed since the last import
// (by mtime and size) and writes their rows to st. With force set every
// file is reparsed.
func Import(ctx context.Context, dir string, st *store.Store, force bool, progressFn ProgressFunc) (*ImportResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &ImportResult{LoadResult: LoadResult{TotalFiles: len(files)}}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := st.TrackedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading file tracker: %w", err)
	}

	// Diff: partition into changed and unchanged
	var toParse []source.DiscoveredFile
	var infos []store.FileInfo
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			result.FileErrors++
			continue
		}
		fi := store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()}
		if cached, ok := tracked[f.Path]; ok && !force && cached == fi {
			result.Skipped++
			continue
		}
		toParse = append(toParse, f)
		infos = append(infos, fi)
	}
	result.Reparsed = len(toParse)

	if progressFn != nil && result.Skipped > 0 {
		progressFn(result.Skipped, result.TotalFiles)
	}

	for i, pr := range parseFiles(toParse, result.Skipped, result.TotalFiles, progressFn) {
		if pr.Err != nil {
			result.FileErrors++
			continue
		}
		if err := st.InsertMessages(ctx, pr.Messages); err != nil {
			return result, fmt.Errorf("storing %s: %w", toParse[i].Name, err)
		}
		if err := st.UpsertProgress(ctx, pr.Progress); err != nil {
			return result, fmt.Errorf("storing %s: %w", toParse[i].Name, err)
		}
		if err := st.TrackFile(ctx, toParse[i].Path, infos[i]); err != nil {
			return result, fmt.Errorf("tracking %s: %w", toParse[i].Name, err)
		}
		result.collect(pr)
	}

	return result, nil
}
