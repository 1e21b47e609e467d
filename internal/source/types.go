package source

import "github.com/theirongolddev/cpulse/internal/model"

// Row types recognized in an export line's "type" field.
const (
	RowMessage  = "message"
	RowProgress = "progress"
)

// DiscoveredFile represents a JSONL export found during directory scanning.
type DiscoveredFile struct {
	Path string
	// Name is the path relative to the scanned root.
	Name string
}

// ParseResult holds the output of parsing a single JSONL file.
type ParseResult struct {
	Messages []model.ChatMessage
	Progress []model.StudentProgress
	// ParseErrors counts lines that were skipped as invalid.
	ParseErrors int
	Err         error
}
