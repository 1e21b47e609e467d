// Package source discovers and parses JSONL exports of tutor chat and
// progress rows.
package source

import (
	"bufio"
	"bytes"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/theirongolddev/cpulse/internal/model"
)

const maxLineSize = 4 * 1024 * 1024

// ParseFile reads one JSONL export. Each non-blank line is a JSON object
// routed by its top-level "type":
//   - "message" (or missing) → ChatMessage
//   - "progress"             → StudentProgress
//   - anything else          → skipped
//
// Lines that are not valid JSON or lack required fields are counted in
// ParseErrors. Messages without an id get a UUID derived from the file
// path and line number, so re-parsing a file yields the same ids.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var result ParseResult

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			result.ParseErrors++
			continue
		}
		row := gjson.ParseBytes(line)

		switch rowType(row) {
		case RowMessage:
			msg, ok := parseMessage(row)
			if !ok {
				result.ParseErrors++
				continue
			}
			if msg.ID == "" {
				msg.ID = lineID(df.Path, lineNo)
			}
			result.Messages = append(result.Messages, msg)
		case RowProgress:
			p, ok := parseProgress(row)
			if !ok {
				result.ParseErrors++
				continue
			}
			result.Progress = append(result.Progress, p)
		}
	}
	if err := scanner.Err(); err != nil {
		result.Err = err
	}

	return result
}

func rowType(row gjson.Result) string {
	t := row.Get("type")
	if !t.Exists() || t.Str == "" {
		return RowMessage
	}
	return t.Str
}

func parseMessage(row gjson.Result) (model.ChatMessage, bool) {
	msg := model.ChatMessage{
		ID:        row.Get("id").String(),
		StudentID: row.Get("student_id").String(),
		CreatorID: row.Get("creator_id").String(),
		Role:      model.Role(row.Get("role").String()),
		Content:   row.Get("content").String(),
		Model:     row.Get("model").String(),
	}
	if msg.StudentID == "" || msg.CreatorID == "" || !msg.Role.Valid() {
		return msg, false
	}

	created, ok := parseTime(row.Get("created_at"))
	if !ok {
		return msg, false
	}
	msg.CreatedAt = created

	msg.InputTokens = optionalInt(row.Get("input_tokens"))
	msg.OutputTokens = optionalInt(row.Get("output_tokens"))
	msg.ResponseTimeMs = optionalInt(row.Get("response_time_ms"))

	row.Get("video_ids").ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String && v.Str != "" {
			msg.VideoIDs = append(msg.VideoIDs, v.Str)
		}
		return true
	})
	if c := row.Get("has_video_citations"); c.Exists() {
		msg.HasVideoCitations = c.Bool()
	} else {
		msg.HasVideoCitations = len(msg.VideoIDs) > 0
	}

	return msg, true
}

// lineID names an id-less row by where it sits in its export.
func lineID(path string, lineNo int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path+"#L"+strconv.Itoa(lineNo))).String()
}

func parseProgress(row gjson.Result) (model.StudentProgress, bool) {
	p := model.StudentProgress{
		StudentID:           row.Get("student_id").String(),
		CreatorID:           row.Get("creator_id").String(),
		VideoCompletionRate: row.Get("video_completion_rate").Float(),
		CourseProgress:      row.Get("course_progress").Float(),
	}
	if p.StudentID == "" || p.CreatorID == "" {
		return p, false
	}
	if t, ok := parseTime(row.Get("updated_at")); ok {
		p.UpdatedAt = t
	}
	return p, true
}

// parseTime accepts RFC 3339 strings or Unix milliseconds.
func parseTime(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, v.Str)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case gjson.Number:
		return time.UnixMilli(v.Int()).UTC(), true
	}
	return time.Time{}, false
}

func optionalInt(v gjson.Result) *int64 {
	if v.Type != gjson.Number {
		return nil
	}
	return model.Int64(v.Int())
}
