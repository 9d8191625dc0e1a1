package compare

// RowsEqual reports whether a and b hold the same values in the same column order.
func RowsEqual(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyRow(r Row) Row {
	return append(Row(nil), r...)
}

// compareRowsOrdered matches rows by position. Submitted rows past the end of
// the reference are wrong, reference rows past the end of the submission are missed.
func compareRowsOrdered(submitted, reference []Row) (wrong, missed []Row) {
	wrong, missed = []Row{}, []Row{}

	for i, row := range submitted {
		if i >= len(reference) || !RowsEqual(row, reference[i]) {
			wrong = append(wrong, copyRow(row))
		}
	}
	for i := len(submitted); i < len(reference); i++ {
		missed = append(missed, copyRow(reference[i]))
	}

	return wrong, missed
}

// compareRowsUnordered reconciles both sides as multisets. Every submitted row
// consumes the first reference row equal to it that no earlier row consumed.
func compareRowsUnordered(submitted, reference []Row) (wrong, missed []Row) {
	wrong, missed = []Row{}, []Row{}
	consumed := make([]bool, len(reference))

	for _, row := range submitted {
		found := false
		for i, ref := range reference {
			if consumed[i] || !RowsEqual(row, ref) {
				continue
			}
			consumed[i] = true
			found = true
			break
		}
		if !found {
			wrong = append(wrong, copyRow(row))
		}
	}

	for i, ref := range reference {
		if !consumed[i] {
			missed = append(missed, copyRow(ref))
		}
	}

	return wrong, missed
}
