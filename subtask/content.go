package subtask

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/elmanelman/solution-judge/compare"
	"github.com/go-ozzo/ozzo-validation/v3"
)

type AllowedSQL int

const (
	AllowedAll AllowedSQL = iota
	AllowedQuery
)

func (a AllowedSQL) String() string {
	switch a {
	case AllowedAll:
		return "ALL"
	case AllowedQuery:
		return "QUERY"
	default:
		return fmt.Sprintf("AllowedSQL(%d)", int(a))
	}
}

func (a AllowedSQL) MarshalJSON() ([]byte, error) {
	switch a {
	case AllowedAll, AllowedQuery:
		return json.Marshal(a.String())
	default:
		return nil, fmt.Errorf("unrecognized allowed_sql %d", int(a))
	}
}

func (a *AllowedSQL) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "ALL":
		*a = AllowedAll
	case "QUERY":
		*a = AllowedQuery
	default:
		return fmt.Errorf("unrecognized allowed_sql %q", s)
	}
	return nil
}

// Content is the kind-specific part of a subtask, stored as JSON.
type Content interface {
	// Reference returns the recorded reference solution, if there is one.
	Reference() (compare.Reference, bool)
	Validate() error
}

type SQLContent struct {
	RowOrderMatters bool                 `json:"row_order_matters"`
	AllowedSQL      AllowedSQL           `json:"allowed_sql"`
	Solution        *compare.SQLSolution `json:"solution"`
}

type ChoiceContent struct {
	AnswerOptions []string                `json:"answer_options"`
	Solution      *compare.ChoiceSolution `json:"solution"`
}

type TextContent struct {
	Solution *compare.TextSolution `json:"solution"`
}

type InstructionContent struct{}

func (c SQLContent) Reference() (compare.Reference, bool) {
	if c.Solution == nil {
		return nil, false
	}
	return compare.SQLReference{Solution: *c.Solution, RowOrderMatters: c.RowOrderMatters}, true
}

func (c ChoiceContent) Reference() (compare.Reference, bool) {
	if c.Solution == nil {
		return nil, false
	}
	return compare.ChoiceReference{Solution: *c.Solution}, true
}

func (c TextContent) Reference() (compare.Reference, bool) {
	if c.Solution == nil {
		return nil, false
	}
	return compare.TextReference{Solution: *c.Solution}, true
}

func (InstructionContent) Reference() (compare.Reference, bool) {
	return nil, false
}

func (c SQLContent) Validate() error {
	return validation.ValidateStruct(
		&c,
		validation.Field(&c.AllowedSQL, validation.In(AllowedAll, AllowedQuery)),
	)
}

func (c ChoiceContent) Validate() error {
	return validation.ValidateStruct(
		&c,
		validation.Field(&c.AnswerOptions, validation.Required),
		validation.Field(&c.Solution, validation.By(c.positionsInRange)),
	)
}

func (c ChoiceContent) positionsInRange(interface{}) error {
	if c.Solution == nil {
		return nil
	}
	for _, p := range c.Solution.Positions {
		if p < 0 || p >= int64(len(c.AnswerOptions)) {
			return fmt.Errorf("position %d is out of range", p)
		}
	}
	return nil
}

func (TextContent) Validate() error        { return nil }
func (InstructionContent) Validate() error { return nil }

const tagInstruction = "instruction"

var ErrUnknownContent = errors.New("unknown subtask content")

// DecodeContent parses content in its stored form: an object keyed by kind,
// or the bare string "instruction".
func DecodeContent(data []byte) (Content, error) {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		if bare == tagInstruction {
			return InstructionContent{}, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownContent, bare)
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one kind, got %d", ErrUnknownContent, len(tagged))
	}

	for tag, payload := range tagged {
		var c Content
		switch tag {
		case compare.TagSQL:
			var v SQLContent
			if err := json.Unmarshal(payload, &v); err != nil {
				return nil, fmt.Errorf("decode %s content: %w", tag, err)
			}
			c = v
		case compare.TagMultipleChoice:
			var v ChoiceContent
			if err := json.Unmarshal(payload, &v); err != nil {
				return nil, fmt.Errorf("decode %s content: %w", tag, err)
			}
			c = v
		case compare.TagPlaintext:
			var v TextContent
			if err := json.Unmarshal(payload, &v); err != nil {
				return nil, fmt.Errorf("decode %s content: %w", tag, err)
			}
			c = v
		case tagInstruction:
			c = InstructionContent{}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownContent, tag)
		}
		return c, nil
	}
	return nil, ErrUnknownContent
}

func MarshalContent(c Content) ([]byte, error) {
	switch v := c.(type) {
	case SQLContent:
		return json.Marshal(map[string]SQLContent{compare.TagSQL: v})
	case ChoiceContent:
		return json.Marshal(map[string]ChoiceContent{compare.TagMultipleChoice: v})
	case TextContent:
		return json.Marshal(map[string]TextContent{compare.TagPlaintext: v})
	case InstructionContent:
		return json.Marshal(tagInstruction)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownContent, c)
	}
}
