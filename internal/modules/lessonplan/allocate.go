package lessonplan

import "strings"

// Allocate splits total minutes across concepts in proportion to the word
// count of each detail. Shares are floored and whatever is left goes to the
// last concept, so the result always sums to total.
//
// When every detail is blank each concept gets total/len(details) and the
// remainder is dropped; 45 minutes over 4 blank concepts allocates 44.
func Allocate(details []string, total int) ([]int, error) {
	if len(details) == 0 {
		return nil, ErrNoConcepts
	}
	if total < 0 {
		return nil, ErrInvalidDuration
	}

	counts := make([]int64, len(details))
	var sum int64
	for i, d := range details {
		counts[i] = int64(len(strings.Fields(d)))
		sum += counts[i]
	}

	out := make([]int, len(details))
	if sum == 0 {
		share := total / len(details)
		for i := range out {
			out[i] = share
		}
		return out, nil
	}

	allocated := 0
	for i, c := range counts {
		out[i] = int(int64(total) * c / sum)
		allocated += out[i]
	}
	out[len(out)-1] += total - allocated
	return out, nil
}
