package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id                   TEXT PRIMARY KEY,
    student_id           TEXT NOT NULL,
    creator_id           TEXT NOT NULL,
    role                 TEXT NOT NULL,
    content              TEXT NOT NULL DEFAULT '',
    created_at           INTEGER NOT NULL,
    input_tokens         INTEGER,
    output_tokens        INTEGER,
    model                TEXT,
    response_time_ms     INTEGER,
    has_video_citations  INTEGER NOT NULL DEFAULT 0,
    video_ids            TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS student_progress (
    creator_id             TEXT NOT NULL,
    student_id             TEXT NOT NULL,
    video_completion_rate  REAL NOT NULL DEFAULT 0,
    course_progress        REAL NOT NULL DEFAULT 0,
    updated_at             INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (creator_id, student_id)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_creator_time ON chat_messages(creator_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_student_time ON chat_messages(student_id, created_at);
`
