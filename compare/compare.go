// Package compare grades a submitted solution against a reference solution.
//
// Every function in this package is pure: results are freshly allocated and no
// state is shared between calls, so Compare may be called from any goroutine.
package compare

const kindMismatchMessage = "Solution types dont match"

// Compare dispatches to the comparison matching the kind of both arguments.
// Different kinds yield a KindMismatch result.
func Compare(sub Submission, ref Reference) Result {
	switch s := sub.(type) {
	case SQLSolution:
		if r, ok := ref.(SQLReference); ok {
			return compareSQL(s, r)
		}
	case ChoiceSolution:
		if r, ok := ref.(ChoiceReference); ok {
			return compareChoices(s, r.Solution)
		}
	case TextSolution:
		if r, ok := ref.(TextReference); ok {
			return compareText(s, r.Solution)
		}
	}
	return KindMismatch{Message: kindMismatchMessage}
}

func compareSQL(sub SQLSolution, ref SQLReference) SQLResult {
	var wrong, missed []Row
	if ref.RowOrderMatters {
		wrong, missed = compareRowsOrdered(sub.Rows, ref.Solution.Rows)
	} else {
		wrong, missed = compareRowsUnordered(sub.Rows, ref.Solution.Rows)
	}
	return SQLResult{
		Correct:    len(wrong) == 0 && len(missed) == 0,
		MissedRows: missed,
		WrongRows:  wrong,
	}
}

func compareText(sub, ref TextSolution) TextResult {
	return TextResult{
		Correct:       sub.Text == ref.Text,
		CorrectAnswer: ref.Text,
	}
}
