package compliance

import (
	"fmt"
	"strings"
)

const PassedSummary = "Content passed all compliance checks."

func Summarize(violations, warnings, info int, compliant bool) string {
	if violations == 0 && warnings == 0 && info == 0 {
		return PassedSummary
	}

	var b strings.Builder
	if compliant {
		b.WriteString("Content is compliant with minor items to review.")
	} else {
		b.WriteString("Content requires attention before publishing.")
	}

	clause := func(n int, singular, plural string) {
		if n == 0 {
			return
		}
		noun := plural
		if n == 1 {
			noun = singular
		}
		fmt.Fprintf(&b, " Found %d %s.", n, noun)
	}
	clause(violations, "violation", "violations")
	clause(warnings, "warning", "warnings")
	clause(info, "informational item", "informational items")

	return b.String()
}
