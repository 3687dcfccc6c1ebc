package offense

// Exit codes returned by ExitCode.
const (
	ExitClean  = 0
	ExitFailed = 1
)

// ExitCode maps the most severe offense against the fail level. With
// FailLevelCrash offenses never fail the run; only an engine crash does, and
// that is reported by the caller.
func ExitCode(offenses []Offense, level FailLevel) int {
	if level.IsCrash() || len(offenses) == 0 {
		return ExitClean
	}
	worst := offenses[0].Severity
	for _, o := range offenses[1:] {
		if o.Severity > worst {
			worst = o.Severity
		}
	}
	if worst >= level.Severity() {
		return ExitFailed
	}
	return ExitClean
}
