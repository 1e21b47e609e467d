package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cpulse/internal/model"
)

// writeExport creates a temp JSONL file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "export.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: "export.jsonl"}
}

func TestParseFile_Messages(t *testing.T) {
	df := writeExport(t,
		`{"type":"message","id":"m1","student_id":"s1","creator_id":"c1","role":"student","content":"How do I start?","created_at":"2025-06-01T10:00:00Z"}`,
		`{"id":"m2","student_id":"s1","creator_id":"c1","role":"assistant","content":"Watch lesson 1","created_at":"2025-06-01T10:00:03Z","model":"claude-3-5-haiku-20241022","input_tokens":1000,"output_tokens":2000,"response_time_ms":2500,"video_ids":["v1","v2"]}`,
	)

	result := ParseFile(df)
	require.NoError(t, result.Err)
	assert.Equal(t, 0, result.ParseErrors)
	require.Len(t, result.Messages, 2)

	q := result.Messages[0]
	assert.Equal(t, model.RoleStudent, q.Role)
	assert.Nil(t, q.InputTokens)
	assert.Nil(t, q.ResponseTimeMs)
	assert.False(t, q.HasVideoCitations)

	a := result.Messages[1]
	assert.Equal(t, "m2", a.ID)
	assert.Equal(t, model.RoleAssistant, a.Role)
	require.NotNil(t, a.InputTokens)
	assert.Equal(t, int64(1000), *a.InputTokens)
	require.NotNil(t, a.OutputTokens)
	assert.Equal(t, int64(2000), *a.OutputTokens)
	require.NotNil(t, a.ResponseTimeMs)
	assert.Equal(t, int64(2500), *a.ResponseTimeMs)
	assert.Equal(t, []string{"v1", "v2"}, a.VideoIDs)
	assert.True(t, a.HasVideoCitations, "citations inferred from video_ids")
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 3, 0, time.UTC), a.CreatedAt)
}

func TestParseFile_MissingIDIsStable(t *testing.T) {
	df := writeExport(t,
		`{"student_id":"s1","creator_id":"c1","role":"student","content":"hi","created_at":1748772000000}`,
	)

	result := ParseFile(df)
	require.NoError(t, result.Err)
	require.Len(t, result.Messages, 1)
	assert.Len(t, result.Messages[0].ID, 36)
	assert.Equal(t, time.UnixMilli(1748772000000).UTC(), result.Messages[0].CreatedAt)

	again := ParseFile(df)
	require.Len(t, again.Messages, 1)
	assert.Equal(t, result.Messages[0].ID, again.Messages[0].ID, "same file and line, same id")
}

func TestParseFile_Progress(t *testing.T) {
	df := writeExport(t,
		`{"type":"progress","student_id":"s1","creator_id":"c1","video_completion_rate":80,"course_progress":45.5,"updated_at":"2025-06-02T00:00:00Z"}`,
	)

	result := ParseFile(df)
	require.NoError(t, result.Err)
	require.Len(t, result.Progress, 1)
	p := result.Progress[0]
	assert.InDelta(t, 80.0, p.VideoCompletionRate, 1e-9)
	assert.InDelta(t, 45.5, p.CourseProgress, 1e-9)
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestParseFile_InvalidLinesCounted(t *testing.T) {
	df := writeExport(t,
		`not json`,
		``,
		`{"student_id":"s1","creator_id":"c1","role":"teacher","created_at":"2025-06-01T10:00:00Z"}`,
		`{"student_id":"s1","creator_id":"c1","role":"student","created_at":"yesterday"}`,
		`{"creator_id":"c1","role":"student","created_at":"2025-06-01T10:00:00Z"}`,
		`{"type":"progress","creator_id":"c1"}`,
		`{"type":"heartbeat"}`,
		`{"student_id":"s1","creator_id":"c1","role":"student","content":"ok","created_at":"2025-06-01T10:00:00Z"}`,
	)

	result := ParseFile(df)
	require.NoError(t, result.Err)
	assert.Equal(t, 5, result.ParseErrors)
	assert.Len(t, result.Messages, 1)
	assert.Empty(t, result.Progress)
}

func TestParseFile_MissingFile(t *testing.T) {
	result := ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "gone.jsonl")})
	assert.Error(t, result.Err)
}

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2025", "06"), 0o750))
	for _, p := range []string{"a.jsonl", "notes.txt", filepath.Join("2025", "06", "b.jsonl")} {
		require.NoError(t, os.WriteFile(filepath.Join(root, p), []byte("{}\n"), 0o600))
	}

	files, err := ScanDir(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join("2025", "06", "b.jsonl"), files[0].Name)
	assert.Equal(t, "a.jsonl", files[1].Name)

	missing, err := ScanDir(filepath.Join(root, "nope"))
	assert.NoError(t, err)
	assert.Empty(t, missing)

	single, err := ScanDir(filepath.Join(root, "a.jsonl"))
	require.NoError(t, err)
	assert.Len(t, single, 1)
}
