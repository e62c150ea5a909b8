package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gmsas95/medtrack/internal/adherence"
	"github.com/gmsas95/medtrack/internal/api"
	"github.com/gmsas95/medtrack/internal/app"
	"github.com/gmsas95/medtrack/internal/config"
	"github.com/gmsas95/medtrack/internal/medication"
	"github.com/gmsas95/medtrack/internal/scheduler"
)

var Version = "dev"

// RunTick evaluates the current minute once and prints the report.
func RunTick(ctx context.Context, w io.Writer, a *app.App) error {
	report, err := a.Scheduler.Tick(ctx)
	if err != nil {
		return err
	}
	printReport(NewPrinter(w), report)
	return nil
}

func printReport(p *Printer, r *scheduler.TickReport) {
	p.Title("Tick %s %s", r.Date, r.Slot)
	p.Line("matched %d  dispatched %d  skipped %d  failed %d", r.Matched, r.Dispatched, r.Skipped, r.Failed)
	if len(r.Outcomes) == 0 {
		return
	}
	rows := make([][]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		rows = append(rows, []string{o.ScheduleID, o.UserID, string(o.Channel), string(o.Status), o.Error})
	}
	p.Table([]string{"Schedule", "User", "Channel", "Outcome", "Error"}, rows)
}

// RunDoses prints the dose statuses of a user for one date.
// Usage: doses <user> [date]
func RunDoses(ctx context.Context, w io.Writer, a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medtrack doses <user> [YYYY-MM-DD]")
	}
	date := a.Statuses.Today()
	if len(args) > 1 {
		d, err := medication.ParseDate(args[1])
		if err != nil {
			return err
		}
		date = d
	}

	doses, err := a.Statuses.DoseStatusesFor(ctx, args[0], date)
	if err != nil {
		return err
	}

	p := NewPrinter(w)
	p.Title("Doses for %s on %s", args[0], date)
	if len(doses) == 0 {
		p.Muted("Nothing scheduled.")
		return nil
	}
	rows := make([][]string, 0, len(doses))
	for _, d := range doses {
		recorded := "-"
		if d.RecordedAt != nil {
			recorded = d.RecordedAt.In(a.Config.Location()).Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{d.Time.String(), d.Medicine, d.Dosage, p.Status(d.Status), recorded, d.MedicineID})
	}
	p.Table([]string{"Time", "Medicine", "Dosage", "Status", "Recorded", "ID"}, rows)
	return nil
}

// RunMark records a dose as taken or missed.
// Usage: mark <user> <schedule> <date> <time> <taken|missed>
func RunMark(ctx context.Context, w io.Writer, a *app.App, args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("usage: medtrack mark <user> <schedule-id> <YYYY-MM-DD> <HH:MM> <taken|missed>")
	}
	rec, err := a.Writer.RecordStatus(ctx, args[0], args[1], adherence.RecordRequest{
		Date:   args[2],
		Time:   args[3],
		Status: args[4],
	})
	if err != nil {
		return err
	}

	p := NewPrinter(w)
	p.Line("✓ %s %s marked %s", rec.ScheduledDate, rec.ScheduledTime, p.Status(rec.Status))
	return nil
}

// RunSummary prints adherence figures for a date range, the last 7 days by default.
// Usage: summary <user> [start] [end]
func RunSummary(ctx context.Context, w io.Writer, a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medtrack summary <user> [start] [end]")
	}
	end := a.Statuses.Today()
	start := end.AddDays(-6)
	if len(args) > 1 {
		d, err := medication.ParseDate(args[1])
		if err != nil {
			return err
		}
		start = d
	}
	if len(args) > 2 {
		d, err := medication.ParseDate(args[2])
		if err != nil {
			return err
		}
		end = d
	}

	s, err := a.Analytics.Summarize(ctx, args[0], start, end)
	if err != nil {
		return err
	}

	p := NewPrinter(w)
	p.Title("Adherence for %s, %s to %s", args[0], s.From, s.To)
	p.Line("total %d  taken %d  missed %d  rate %.2f%%", s.Total, s.Taken, s.Missed, s.Rate)
	if len(s.Daily) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(s.Daily))
	for _, d := range s.Daily {
		rows = append(rows, []string{d.Date.String(), strconv.Itoa(d.Taken), strconv.Itoa(d.Missed), strconv.Itoa(d.Total)})
	}
	p.Table([]string{"Date", "Taken", "Missed", "Total"}, rows)
	return nil
}

// RunTicks prints the most recent journaled ticks.
// Usage: ticks [n]
func RunTicks(w io.Writer, a *app.App, args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		limit = n
	}

	reports, err := a.Journal.Recent(limit)
	if err != nil {
		return err
	}

	p := NewPrinter(w)
	if len(reports) == 0 {
		p.Muted("No ticks journaled yet.")
		return nil
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.At.Format(time.RFC3339),
			r.Slot.String(),
			strconv.Itoa(r.Matched),
			strconv.Itoa(r.Dispatched),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Failed),
		})
	}
	p.Table([]string{"At", "Slot", "Matched", "Sent", "Skipped", "Failed"}, rows)
	return nil
}

// RunToken issues a bearer token for a user.
// Usage: token <user>
func RunToken(w io.Writer, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medtrack token <user>")
	}
	tok, err := api.IssueToken([]byte(cfg.Auth.JWTSecret), args[0], cfg.TokenTTL())
	if err != nil {
		return err
	}
	fmt.Fprintln(w, tok)
	return nil
}

// RunConfig handles "config init|path|show".
func RunConfig(w io.Writer, args []string, configPath, dataDir string) error {
	if len(args) == 0 {
		PrintConfigHelp(w)
		return nil
	}

	switch args[0] {
	case "init":
		path := configPath
		if len(args) > 1 {
			path = args[1]
		}
		if err := config.WriteDefault(path, dataDir); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Wrote default config to %s\n", path)

	case "path":
		fmt.Fprintln(w, configPath)

	case "show", "view":
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("error reading config: %w", err)
		}
		fmt.Fprintln(w, string(data))

	default:
		PrintConfigHelp(w)
	}
	return nil
}

// RunChannels shows which transports reminders will use.
func RunChannels(w io.Writer, cfg *config.Config) {
	p := NewPrinter(w)
	p.Title("Notification Channels")

	smtp := cfg.Notify.SMTP
	p.Line("Email:    %s", channelStatus(smtp.Host != ""))
	if smtp.Host != "" {
		p.Line("  Relay: %s:%d", smtp.Host, smtp.Port)
		p.Line("  From:  %s", smtp.From)
	}

	p.Line("Chat:     %s (%s)", channelStatus(chatToken(cfg) != ""), cfg.Notify.ChatBackend)
	if tok := chatToken(cfg); tok != "" {
		p.Line("  Token: %s", maskToken(tok))
	}
	p.Line("Limits:   %.1f/s burst %d, breaker after %d failures",
		cfg.Notify.RatePerSecond, cfg.Notify.Burst, cfg.Notify.BreakerFailures)
}

func chatToken(cfg *config.Config) string {
	if cfg.Notify.ChatBackend == "discord" {
		return cfg.Notify.Discord.Token
	}
	return cfg.Notify.Telegram.BotToken
}

func channelStatus(enabled bool) string {
	if enabled {
		return "✅ enabled"
	}
	return "❌ log only"
}

func maskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RunDoctor checks that the pieces a server needs are in place.
func RunDoctor(w io.Writer, a *app.App) int {
	fmt.Fprintln(w, "medtrack Diagnostics")
	fmt.Fprintln(w, "====================")
	fmt.Fprintln(w)

	issues := 0
	cfg := a.Config

	if _, err := os.Stat(cfg.Storage.DataDir); os.IsNotExist(err) {
		fmt.Fprintln(w, "❌ Data Directory: Does not exist")
		issues++
	} else {
		fmt.Fprintln(w, "✅ Data Directory: Exists")
	}

	if err := a.Store.Ping(); err != nil {
		fmt.Fprintf(w, "❌ Database: %v\n", err)
		issues++
	} else {
		fmt.Fprintf(w, "✅ Database: %s reachable\n", cfg.Storage.Driver)
	}

	fmt.Fprintf(w, "✅ Timezone: %s (now %s)\n", cfg.Location(), a.Clock.Now().In(cfg.Location()).Format("15:04"))

	if cfg.Notify.SMTP.Host == "" {
		fmt.Fprintln(w, "⚠️  Email: No SMTP relay, reminders are only logged")
		issues++
	} else {
		fmt.Fprintln(w, "✅ Email: SMTP relay configured")
	}
	if chatToken(cfg) == "" {
		fmt.Fprintf(w, "⚠️  Chat: No %s token, reminders are only logged\n", cfg.Notify.ChatBackend)
		issues++
	} else {
		fmt.Fprintf(w, "✅ Chat: %s configured\n", cfg.Notify.ChatBackend)
	}

	if cfg.Auth.JWTSecret == "" || cfg.Auth.SecretGenerated {
		fmt.Fprintln(w, "⚠️  Auth: No jwt_secret, API tokens are reset on every restart")
		issues++
	} else {
		fmt.Fprintln(w, "✅ Auth: JWT secret configured")
	}

	fmt.Fprintln(w)
	if issues == 0 {
		fmt.Fprintln(w, "✅ All checks passed!")
	} else {
		fmt.Fprintf(w, "⚠️  Found %d issue(s).\n", issues)
	}
	return issues
}
