package compare

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TagSQL            = "sql"
	TagMultipleChoice = "multiple_choice"
	TagPlaintext      = "plaintext"
	TagError          = "error"
)

var (
	ErrUnknownKind  = errors.New("unknown solution kind")
	ErrMissingField = errors.New("missing solution field")
)

// required lists the payload keys every submission kind must carry.
var required = map[string][]string{
	TagSQL:            {"query", "columns", "rows"},
	TagMultipleChoice: {"correct_positions"},
	TagPlaintext:      {"text"},
}

// checkFields rejects a null payload and payloads missing a required key or
// carrying null for it.
func checkFields(tag string, payload json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("decode %s solution: %w", tag, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: %s solution is null", ErrMissingField, tag)
	}
	for _, key := range required[tag] {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			return fmt.Errorf("%w: %s solution requires %q", ErrMissingField, tag, key)
		}
	}
	return nil
}

// DecodeSubmission parses an externally tagged submission such as
// {"sql": {"query": "...", "columns": [...], "rows": [[...]]}}.
func DecodeSubmission(data []byte) (Submission, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one of %q, %q, %q", ErrUnknownKind, TagSQL, TagMultipleChoice, TagPlaintext)
	}

	for tag, payload := range tagged {
		if _, ok := required[tag]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
		}
		if err := checkFields(tag, payload); err != nil {
			return nil, err
		}

		switch tag {
		case TagSQL:
			var s SQLSolution
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("decode %s solution: %w", tag, err)
			}
			return s, nil
		case TagMultipleChoice:
			var s ChoiceSolution
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("decode %s solution: %w", tag, err)
			}
			return s, nil
		case TagPlaintext:
			var s TextSolution
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("decode %s solution: %w", tag, err)
			}
			return s, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
		}
	}
	return nil, ErrUnknownKind
}

// MarshalSubmission is the inverse of DecodeSubmission.
func MarshalSubmission(s Submission) ([]byte, error) {
	switch v := s.(type) {
	case SQLSolution:
		if v.Columns == nil {
			v.Columns = []string{}
		}
		v.Rows = nonNilRows(v.Rows)
		return json.Marshal(map[string]SQLSolution{TagSQL: v})
	case ChoiceSolution:
		v.Positions = nonNilPositions(v.Positions)
		return json.Marshal(map[string]ChoiceSolution{TagMultipleChoice: v})
	case TextSolution:
		return json.Marshal(map[string]TextSolution{TagPlaintext: v})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, s)
	}
}

// MarshalResult encodes r keyed by its kind. Empty row and choice lists are
// encoded as [] rather than null.
func MarshalResult(r Result) ([]byte, error) {
	switch v := r.(type) {
	case SQLResult:
		v.MissedRows = nonNilRows(v.MissedRows)
		v.WrongRows = nonNilRows(v.WrongRows)
		return json.Marshal(map[string]SQLResult{TagSQL: v})
	case ChoiceResult:
		v.WrongChoices = nonNilPositions(v.WrongChoices)
		v.MissedChoices = nonNilPositions(v.MissedChoices)
		return json.Marshal(map[string]ChoiceResult{TagMultipleChoice: v})
	case TextResult:
		return json.Marshal(map[string]TextResult{TagPlaintext: v})
	case KindMismatch:
		return json.Marshal(map[string]string{TagError: v.Message})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, r)
	}
}

func nonNilRows(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	return rows
}

func nonNilPositions(positions []int64) []int64 {
	if positions == nil {
		return []int64{}
	}
	return positions
}
