package availability

import (
	"fmt"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

// Window is the base working time for one day.
type Window struct {
	Start civil.Clock
	End   civil.Clock
}

// ResolveWindow picks the active weekly rule for day's weekday. When several
// active rules exist the one with the lowest ID wins and an issue is
// reported. A day that has already ended still resolves; past slots are
// filtered later.
func ResolveWindow(cal model.Calendar, day civil.Date) (Window, bool, []Issue) {
	weekday := day.Weekday()

	var (
		picked  *model.WeeklyRule
		matches int
		issues  []Issue
	)
	for i := range cal.Rules {
		r := &cal.Rules[i]
		if !r.Active || r.Weekday != weekday {
			continue
		}
		if err := r.Validate(); err != nil {
			issues = append(issues, dataIntegrity(fmt.Sprintf("weekly rule %d ignored: %v", r.ID, err)))
			continue
		}
		matches++
		if picked == nil || r.ID < picked.ID {
			picked = r
		}
	}
	if matches > 1 {
		issues = append(issues, dataIntegrity(fmt.Sprintf(
			"%d active weekly rules for %s, using rule %d", matches, weekday, picked.ID)))
	}
	if picked == nil {
		return Window{}, false, issues
	}
	return Window{Start: picked.Start, End: picked.End}, true, issues
}
