package workflow

// resultStore maps step index to the last-known result for that step.
// Writes replace; entries are never removed implicitly. Writing step 2
// never touches step 1's data.
type resultStore struct {
	results map[int]*StepResult
}

func newResultStore() *resultStore {
	return &resultStore{results: make(map[int]*StepResult)}
}

// get returns the stored result, or ok=false for an index that was never
// written. It never panics on unset indices.
func (s *resultStore) get(index int) (*StepResult, bool) {
	res, ok := s.results[index]
	return res, ok
}

func (s *resultStore) set(index int, res *StepResult) {
	s.results[index] = res
}

func (s *resultStore) clear() {
	s.results = make(map[int]*StepResult)
}

// logStore holds an independent append-only log sequence per step index.
// Sequences are never reordered and only removed by an explicit clear.
type logStore struct {
	logs map[int][]LogEntry
}

func newLogStore() *logStore {
	return &logStore{logs: make(map[int][]LogEntry)}
}

func (s *logStore) append(index int, entry LogEntry) {
	s.logs[index] = append(s.logs[index], entry)
}

// get returns a copy of the step's log sequence so callers cannot mutate
// the stored order.
func (s *logStore) get(index int) []LogEntry {
	src := s.logs[index]
	out := make([]LogEntry, len(src))
	copy(out, src)
	return out
}

func (s *logStore) clearStep(index int) {
	delete(s.logs, index)
}

func (s *logStore) clearAll() {
	s.logs = make(map[int][]LogEntry)
}

func (s *logStore) total() int {
	n := 0
	for _, entries := range s.logs {
		n += len(entries)
	}
	return n
}
