package workflow

// Accessible reports whether navigation to target is permitted given the
// current step and the set of completed step indices. It is a pure
// predicate; rules are checked in priority order and the first match wins:
//
//  1. step 0 is always accessible
//  2. a completed step is always accessible, adjacency irrelevant
//  3. the current step is always accessible
//  4. current+1 is accessible only once the current step is completed
//  5. everything else is locked
func Accessible(target, current int, completed map[int]bool) bool {
	if target == 0 {
		return true
	}
	if completed[target] {
		return true
	}
	if target == current {
		return true
	}
	if target == current+1 {
		return completed[current]
	}
	return false
}
