package pipeline

import "github.com/matzehuels/idplease/pkg/passport"

// Build runs the build stage: it merges res with overrides. No I/O.
func Build(res *Resolution, ov passport.Overrides) passport.Record {
	if res == nil {
		return passport.Build(passport.Resolved{}, ov)
	}
	return passport.Build(res.Resolved, ov)
}
