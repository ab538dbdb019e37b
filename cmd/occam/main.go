// occam is the command-line client for the tracker. It speaks to whichever
// storage provider the config selects, so the same commands work against the
// embedded local store or a remote API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/claude/occam/internal/config"
	"github.com/claude/occam/internal/dateutil"
	"github.com/claude/occam/internal/models"
	"github.com/claude/occam/internal/storage"
	"github.com/claude/occam/internal/validate"
)

const usage = `Usage: occam [-config config.yaml] <command> [args]

Commands:
  sessions              list logged training sessions
  log -variant A|B -date YYYY-MM-DD -exercise name=weight[,reps] ...
                        log a training session
  measurements          list body measurements
  weigh -weight N [-date YYYY-MM-DD] [-fat N]
                        log a weight measurement
  settings              show settings
  profile               show user profile
  reminders             list scheduled reminders
  remind -variant A|B -date YYYY-MM-DD
                        schedule a workout reminder
  complete -id ID       mark a reminder completed
  export                print the full data export to stdout
  import -file PATH     import a previously exported file
  clear                 delete all data
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "occam: loading config: %v\n", err)
		os.Exit(1)
	}

	provider, err := storage.New(cfg.Storage, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "occam: opening storage: %v\n", err)
		os.Exit(1)
	}
	defer provider.Close()

	ctx := context.Background()
	cmd, args := flag.Arg(0), flag.Args()[1:]

	if err := run(ctx, provider, cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "occam: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, provider storage.Provider, cmd string, args []string) error {
	switch cmd {
	case "sessions":
		return listSessions(ctx, provider)
	case "log":
		return logSession(ctx, provider, args)
	case "measurements":
		return listMeasurements(ctx, provider)
	case "weigh":
		return logMeasurement(ctx, provider, args)
	case "settings":
		return showSettings(ctx, provider)
	case "profile":
		return showProfile(ctx, provider)
	case "reminders":
		return listReminders(ctx, provider)
	case "remind":
		return addReminder(ctx, provider, args)
	case "complete":
		return completeReminder(ctx, provider, args)
	case "export":
		fmt.Println(provider.ExportData(ctx))
		return nil
	case "import":
		return importData(ctx, provider, args)
	case "clear":
		if !provider.ClearAllData(ctx) {
			return fmt.Errorf("clear failed")
		}
		fmt.Println("all data cleared")
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func listSessions(ctx context.Context, provider storage.Provider) error {
	sessions := provider.GetSessions(ctx)
	if len(sessions) == 0 {
		fmt.Println("no sessions logged")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %s  variant %s\n", s.ID, dateutil.FormatDateDisplay(s.Date), s.Variant)
		for _, e := range s.Exercises {
			if e.Reps != nil {
				fmt.Printf("    %-24s %g %s x %d\n", e.Name, e.Weight, e.Unit, *e.Reps)
			} else {
				fmt.Printf("    %-24s %g %s\n", e.Name, e.Weight, e.Unit)
			}
		}
	}
	return nil
}

// parseExercise parses "name=weight" or "name=weight,reps".
func parseExercise(s, unit string) (models.Exercise, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok {
		return models.Exercise{}, fmt.Errorf("exercise %q: want name=weight[,reps]", s)
	}

	weightStr, repsStr, hasReps := strings.Cut(rest, ",")
	res := validate.Weight(weightStr)
	if !res.Valid {
		return models.Exercise{}, fmt.Errorf("exercise %q: %s", name, res.Err)
	}

	ex := models.Exercise{Name: name, Weight: res.Value, Unit: unit}
	if hasReps {
		var reps int
		if _, err := fmt.Sscanf(repsStr, "%d", &reps); err != nil {
			return models.Exercise{}, fmt.Errorf("exercise %q: bad rep count %q", name, repsStr)
		}
		ex.Reps = &reps
	}
	return ex, nil
}

type exerciseList []string

func (e *exerciseList) String() string     { return strings.Join(*e, " ") }
func (e *exerciseList) Set(v string) error { *e = append(*e, v); return nil }

func logSession(ctx context.Context, provider storage.Provider, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	variant := fs.String("variant", "", "workout variant (A or B)")
	date := fs.String("date", dateutil.FormatDate(time.Now()), "session date (YYYY-MM-DD)")
	var exercises exerciseList
	fs.Var(&exercises, "exercise", "exercise as name=weight[,reps] (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if res := validate.VariantName(*variant); !res.Valid {
		return fmt.Errorf("%s", res.Err)
	}
	if res := validate.Date(*date); !res.Valid {
		return fmt.Errorf("%s", res.Err)
	}

	settings := provider.GetSettings(ctx)
	session := models.TrainingSession{
		Date:      *date,
		Variant:   models.Variant(*variant),
		Exercises: []models.Exercise{},
	}
	for _, raw := range exercises {
		ex, err := parseExercise(raw, settings.Unit)
		if err != nil {
			return err
		}
		session.Exercises = append(session.Exercises, ex)
	}

	if !provider.AddSession(ctx, session) {
		return fmt.Errorf("saving session failed")
	}
	fmt.Printf("logged variant %s session on %s\n", *variant, dateutil.FormatDateDisplay(*date))
	return nil
}

func listMeasurements(ctx context.Context, provider storage.Provider) error {
	measurements := provider.GetMeasurements(ctx)
	if len(measurements) == 0 {
		fmt.Println("no measurements logged")
		return nil
	}
	for _, m := range measurements {
		line := fmt.Sprintf("%s  %s  %g %s", m.ID, dateutil.FormatDateDisplay(m.Date), m.Weight, m.WeightUnit)
		if m.BodyFat > 0 {
			line += fmt.Sprintf("  %.1f%% fat", m.BodyFat)
		}
		fmt.Println(line)
	}
	return nil
}

func logMeasurement(ctx context.Context, provider storage.Provider, args []string) error {
	fs := flag.NewFlagSet("weigh", flag.ExitOnError)
	weight := fs.String("weight", "", "body weight (required)")
	date := fs.String("date", dateutil.FormatDate(time.Now()), "measurement date (YYYY-MM-DD)")
	fat := fs.String("fat", "", "body fat percentage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := validate.Weight(*weight)
	if !res.Valid {
		return fmt.Errorf("%s", res.Err)
	}
	if dres := validate.Date(*date); !dres.Valid {
		return fmt.Errorf("%s", dres.Err)
	}

	settings := provider.GetSettings(ctx)
	m := models.Measurement{
		Date:            *date,
		Weight:          res.Value,
		WeightUnit:      settings.Unit,
		MeasurementUnit: "cm",
	}
	if *fat != "" {
		fres := validate.BodyFat(*fat)
		if !fres.Valid {
			return fmt.Errorf("%s", fres.Err)
		}
		m.BodyFat = fres.Value
	}

	if !provider.AddMeasurement(ctx, m) {
		return fmt.Errorf("saving measurement failed")
	}
	fmt.Printf("logged %g %s on %s\n", m.Weight, m.WeightUnit, dateutil.FormatDateDisplay(*date))
	return nil
}

func showSettings(ctx context.Context, provider storage.Provider) error {
	s := provider.GetSettings(ctx)
	fmt.Printf("unit:  %s\ntheme: %s\n", s.Unit, s.Theme)
	fmt.Printf("workout reminders: enabled=%t days=%s time=%s\n",
		s.Notifications.Enabled, strings.Join(s.Notifications.Days, ","), s.Notifications.Time)
	fmt.Printf("measurement reminder: enabled=%t day=%s time=%s\n",
		s.MeasurementNotifications.Enabled, s.MeasurementNotifications.Day, s.MeasurementNotifications.Time)
	return nil
}

func showProfile(ctx context.Context, provider storage.Provider) error {
	p := provider.GetUserProfile(ctx)
	if p == nil {
		fmt.Println("no profile yet")
		return nil
	}
	fmt.Printf("name:           %s\n", p.Name)
	fmt.Printf("height:         %g cm\n", p.Height)
	fmt.Printf("initial weight: %g kg\n", p.InitialWeight)
	fmt.Printf("onboarded:      %t\n", p.OnboardingCompleted)
	return nil
}

func listReminders(ctx context.Context, provider storage.Provider) error {
	reminders := provider.GetScheduledReminders(ctx)
	if len(reminders) == 0 {
		fmt.Println("no reminders scheduled")
		return nil
	}
	for _, r := range reminders {
		state := "pending"
		if r.Completed {
			state = "done"
		}
		fmt.Printf("%s  %s  variant %s  [%s]\n", r.ID, dateutil.FormatDateDisplay(r.Date), r.Variant, state)
	}
	return nil
}

func addReminder(ctx context.Context, provider storage.Provider, args []string) error {
	fs := flag.NewFlagSet("remind", flag.ExitOnError)
	variant := fs.String("variant", "", "workout variant (A or B)")
	date := fs.String("date", "", "reminder date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if res := validate.VariantName(*variant); !res.Valid {
		return fmt.Errorf("%s", res.Err)
	}
	if res := validate.Date(*date); !res.Valid {
		return fmt.Errorf("%s", res.Err)
	}

	reminder := provider.AddScheduledReminder(ctx, *date, models.Variant(*variant))
	if reminder == nil {
		return fmt.Errorf("scheduling reminder failed")
	}
	fmt.Printf("reminder %s: variant %s on %s\n", reminder.ID, reminder.Variant,
		dateutil.FormatDateDisplay(reminder.Date))
	return nil
}

func completeReminder(ctx context.Context, provider storage.Provider, args []string) error {
	fs := flag.NewFlagSet("complete", flag.ExitOnError)
	id := fs.String("id", "", "reminder id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	if !provider.MarkReminderCompleted(ctx, *id) {
		return fmt.Errorf("no reminder with id %s", *id)
	}
	fmt.Println("reminder completed")
	return nil
}

func importData(ctx context.Context, provider storage.Provider, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "path to exported JSON (required, - for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	var blob []byte
	var err error
	if *file == "-" {
		blob, err = io.ReadAll(os.Stdin)
	} else {
		blob, err = os.ReadFile(*file)
	}
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	if !provider.ImportData(ctx, string(blob)) {
		return fmt.Errorf("import rejected: not a valid export file")
	}
	fmt.Println("import complete")
	return nil
}
