package codec

import "strings"

// env is the transient name to int64 mapping populated by variable-bound
// fields and read by match fields, scoped to a single decode call. Per
// spec.md §9, its capacity is bounded by the schema's field count and
// duplicate names overwrite - a plain map already gives both for free.
type env struct {
	vars map[string]int64
}

func newEnv(fieldCount int) *env {
	return &env{vars: make(map[string]int64, fieldCount)}
}

func (e *env) set(name string, v int64) {
	if name == "" {
		return
	}
	e.vars[name] = v
}

// get resolves name, accepting and stripping a leading '$' as spec.md
// §4.D requires for match-variable references.
func (e *env) get(name string) (int64, bool) {
	v, ok := e.vars[strings.TrimPrefix(name, "$")]
	return v, ok
}
