package templates

// Placeholders are written as "?" and rebound per driver with sqlx.DB.Rebind.

const FetchSubtask = `
SELECT ID,
       INSTRUCTION,
       IS_SOLUTION_VERIFIABLE,
       IS_SOLUTION_VISIBLE,
       SCHEMA_NAME,
       CONTENT
  FROM SUBTASKS
 WHERE ID = ?`

const InsertSubtask = `
INSERT INTO SUBTASKS (ID, INSTRUCTION, IS_SOLUTION_VERIFIABLE, IS_SOLUTION_VISIBLE, SCHEMA_NAME, CONTENT, CAPTURE_STATUS_ID)
VALUES (?, ?, ?, ?, ?, ?, ?)`

const UpdateSubtaskContent = `
UPDATE SUBTASKS
   SET CONTENT = ?,
       CAPTURE_STATUS_ID = ?,
       CAPTURE_MESSAGE = NULL
 WHERE ID = ?`

const UpdateCapturedContent = `
UPDATE SUBTASKS
   SET CONTENT = ?
 WHERE ID = ?`

const FetchCaptureJobs = `
SELECT ID AS SUBTASK_ID,
       SCHEMA_NAME,
       CONTENT
  FROM SUBTASKS
 WHERE CAPTURE_STATUS_ID = ?`

const UpdateCaptureStatus = `
UPDATE SUBTASKS
   SET CAPTURE_STATUS_ID = ?,
       CAPTURE_MESSAGE = ?
 WHERE ID = ?`

const SchemaSQLite = `
CREATE TABLE IF NOT EXISTS SUBTASKS (
  ID                     TEXT PRIMARY KEY,
  INSTRUCTION            TEXT NOT NULL DEFAULT '',
  IS_SOLUTION_VERIFIABLE TEXT NOT NULL DEFAULT 'N',
  IS_SOLUTION_VISIBLE    TEXT NOT NULL DEFAULT 'N',
  SCHEMA_NAME            TEXT,
  CONTENT                TEXT NOT NULL,
  CAPTURE_STATUS_ID      INTEGER NOT NULL DEFAULT 0,
  CAPTURE_MESSAGE        TEXT
);
`

const RequeueCaptureJobs = `
UPDATE SUBTASKS
   SET CAPTURE_STATUS_ID = ?
 WHERE CAPTURE_STATUS_ID = ?`
