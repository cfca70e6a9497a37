package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docsentry/docsentry/internal/models"
	"github.com/docsentry/docsentry/internal/types"
	"github.com/docsentry/docsentry/pkg/logx"
)

// GenerateReport renders the plain-text daily report. Both sections are
// always present so an empty report still reads as a deliberate "nothing
// found" rather than a truncated one.
func (a *Agent) GenerateReport(expirations []models.ExpirationFinding, conflicts []models.ConflictFinding) string {
	var b strings.Builder

	b.WriteString("Daily Contract Management Report\n")
	b.WriteString("Generated: " + a.config.Now().Format("2006-01-02 15:04:05") + "\n\n")

	fmt.Fprintf(&b, "=== APPROACHING CONTRACT EXPIRATIONS (Next %d days) ===\n", a.config.ExpirationWindowDays)
	if len(expirations) == 0 {
		fmt.Fprintf(&b, "No contracts expiring in the next %d days.\n", a.config.ExpirationWindowDays)
	} else {
		for _, exp := range expirations {
			fmt.Fprintf(&b, "• %s: Expires on %s (%d days)\n",
				exp.Document, exp.Date.Format("2006-01-02"), exp.DaysUntilExpiration)
		}
	}

	b.WriteString("\n=== CONFLICTS DETECTED ===\n")
	if len(conflicts) == 0 {
		b.WriteString("No conflicts detected.\n")
	} else {
		for _, c := range conflicts {
			fmt.Fprintf(&b, "• Company: %s\n", c.Company)
			fmt.Fprintf(&b, "  Issue: %s\n", c.Issue)
			fmt.Fprintf(&b, "  Documents involved: %s\n", strings.Join(c.Documents, ", "))

			addrs := make([]string, 0, len(c.Addresses))
			for addr := range c.Addresses {
				addrs = append(addrs, addr)
			}
			sort.Strings(addrs)
			for _, addr := range addrs {
				fmt.Fprintf(&b, "  Address '%s' found in: %s\n", addr, strings.Join(c.Addresses[addr], ", "))
			}
		}
	}

	return b.String()
}

// RunDaily runs both scans, renders the report, and optionally delivers it.
// The report text is always returned, even when delivery fails; the error
// reflects delivery only.
func (a *Agent) RunDaily(ctx context.Context, sender types.ReportSender) (string, error) {
	expirations := a.ExtractExpirations(ctx)
	conflicts := a.DetectConflicts(ctx)
	report := a.GenerateReport(expirations, conflicts)

	logx.Info().
		Int("expirations", len(expirations)).
		Int("conflicts", len(conflicts)).
		Msg("daily report generated")

	if sender == nil {
		return report, nil
	}
	if err := sender.Send(ctx, "Daily Contract Management Report", report); err != nil {
		logx.Error().Err(err).Msg("report delivery failed")
		return report, fmt.Errorf("deliver report: %w", err)
	}
	logx.Info().Msg("daily report delivered")
	return report, nil
}
