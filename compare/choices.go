package compare

// compareChoices treats both position lists as sets: how often a position is
// listed does not matter, and each position is reported at most once.
func compareChoices(selected, correct ChoiceSolution) ChoiceResult {
	selectedSet := positionSet(selected.Positions)
	correctSet := positionSet(correct.Positions)

	wrong := difference(selected.Positions, correctSet)
	missed := difference(correct.Positions, selectedSet)

	return ChoiceResult{
		Correct:       len(wrong) == 0 && len(missed) == 0,
		WrongChoices:  wrong,
		MissedChoices: missed,
	}
}

func positionSet(positions []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(positions))
	for _, p := range positions {
		set[p] = struct{}{}
	}
	return set
}

// difference returns the positions absent from exclude, in first-occurrence order.
func difference(positions []int64, exclude map[int64]struct{}) []int64 {
	out := []int64{}
	seen := make(map[int64]struct{}, len(positions))
	for _, p := range positions {
		if _, ok := exclude[p]; ok {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
