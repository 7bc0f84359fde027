package service

// ExpansionGuard bounds how many jobs a single matrix enqueue may create.
// The builder itself never caps; this only guards the queue.
type ExpansionGuard struct {
	// Expansions above warnAt are logged as a warning
	warnAt int

	// Expansions above maxJobs are rejected unless forced; 0 disables the cap
	maxJobs int
}

// NewExpansionGuard creates a new expansion guard
func NewExpansionGuard(warnAt, maxJobs int) *ExpansionGuard {
	return &ExpansionGuard{
		warnAt:  warnAt,
		maxJobs: maxJobs,
	}
}

// Check reports whether size deserves a warning, and fails with
// ErrExpansionTooLarge when it exceeds the cap and force is not set
func (g *ExpansionGuard) Check(size int, force bool) (warn bool, err error) {
	if g == nil {
		return false, nil
	}

	warn = g.warnAt > 0 && size > g.warnAt
	if g.maxJobs > 0 && size > g.maxJobs && !force {
		return warn, ErrExpansionTooLarge
	}

	return warn, nil
}
