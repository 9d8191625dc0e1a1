package judge

import "database/sql"

type CaptureJob struct {
	SubtaskID  string         `db:"SUBTASK_ID"`
	SchemaName sql.NullString `db:"SCHEMA_NAME"`
	Content    string         `db:"CONTENT"`
}
