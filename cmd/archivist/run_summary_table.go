package main

import (
	"fmt"

	"archivist/internal/engine"
)

func renderRunSummaryTable(summary engine.RunSummary) string {
	if summary.SkippedByLock {
		return "sync run skipped: job lock held by another process"
	}

	headers := []string{"account", "uploaded", "skipped", "failed", "backfill_done", "cooldown"}
	rows := make([][]string, 0, len(summary.Accounts))
	for _, a := range summary.Accounts {
		cooldown := "no"
		if a.CooldownActive && a.CooldownUntil != nil {
			cooldown = "until " + a.CooldownUntil.Format("2006-01-02T15:04:05Z07:00")
		}
		rows = append(rows, []string{
			"@" + a.Handle,
			fmt.Sprintf("%d", a.Uploaded),
			fmt.Sprintf("%d", a.Skipped),
			fmt.Sprintf("%d", a.Failed),
			yesNo(a.BackfillDone),
			cooldown,
		})
	}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft}
	return renderTable(headers, rows, aligns)
}
