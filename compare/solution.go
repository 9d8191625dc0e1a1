package compare

// Row is one record of a result set, column values in select order.
type Row []string

// Submission is a learner's answer. The set of variants is closed.
type Submission interface {
	isSubmission()
}

// Reference is the teacher-authored answer a Submission is graded against.
type Reference interface {
	isReference()
}

// Result is the outcome of Compare.
type Result interface {
	isResult()
}

type SQLSolution struct {
	Query   string   `json:"query"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type ChoiceSolution struct {
	Positions []int64 `json:"correct_positions"`
}

type TextSolution struct {
	Text string `json:"text"`
}

func (SQLSolution) isSubmission()    {}
func (ChoiceSolution) isSubmission() {}
func (TextSolution) isSubmission()   {}

type SQLReference struct {
	Solution        SQLSolution
	RowOrderMatters bool
}

type ChoiceReference struct {
	Solution ChoiceSolution
}

type TextReference struct {
	Solution TextSolution
}

func (SQLReference) isReference()    {}
func (ChoiceReference) isReference() {}
func (TextReference) isReference()   {}

type SQLResult struct {
	Correct    bool  `json:"correct"`
	MissedRows []Row `json:"missed_rows"`
	WrongRows  []Row `json:"wrong_rows"`
}

type ChoiceResult struct {
	Correct       bool    `json:"correct"`
	WrongChoices  []int64 `json:"wrong_choices"`
	MissedChoices []int64 `json:"missed_choices"`
}

type TextResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
}

// KindMismatch is returned when the submission and the reference are different kinds.
type KindMismatch struct {
	Message string
}

func (SQLResult) isResult()    {}
func (ChoiceResult) isResult() {}
func (TextResult) isResult()   {}
func (KindMismatch) isResult() {}
