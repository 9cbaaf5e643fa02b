package commands

import (
	"fmt"
	"time"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// formatUptime renders the time since boot.
func formatUptime(now time.Time, uptime time.Duration, processes int) string {
	day := (24 * time.Hour)
	uptimeDays := uptime / day
	uptime -= uptimeDays * day
	uptimeHours := uptime / time.Hour
	uptime -= uptimeHours * time.Hour
	uptimeMins := uptime / time.Minute

	return fmt.Sprintf(
		"%s up %d days,  %02d:%02d,  %d processes",
		now.Format("15:04:05"),
		uptimeDays,
		uptimeHours,
		uptimeMins,
		processes,
	)
}

// Uptime prints how long the machine has been running.
func Uptime(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "uptime",
		Short: "Tell how long the system has been running.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		now := time.Now()
		return expr.Str(formatUptime(now, now.Sub(m.BootTime()), len(m.Processes()))), machine.OK
	})
}

var _ machine.VerbFunc = Uptime

func init() {
	addVerb("uptime", Uptime)
}
