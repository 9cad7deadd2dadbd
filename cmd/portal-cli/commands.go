package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/healthfirst/portal/internal/availability"
	"github.com/healthfirst/portal/internal/credential"
	"github.com/healthfirst/portal/internal/forms"
	"github.com/healthfirst/portal/pkg/monitoring"
	"github.com/healthfirst/portal/pkg/types"
	"github.com/spf13/cobra"
)

func parseRole(s string) (types.UserRole, error) {
	switch r := types.UserRole(strings.ToLower(s)); r {
	case types.RoleProvider, types.RolePatient:
		return r, nil
	}
	return "", fmt.Errorf("--role must be provider or patient, got %q", s)
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	d, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

// submitted reports a controller outcome and turns field errors into one
// command error
func submitted[T any](out io.Writer, c *forms.Controller[T], err error) error {
	if err != nil {
		if errs := c.VisibleErrors(); len(errs) > 0 {
			fields := make([]string, 0, len(errs))
			for f := range errs {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				fmt.Fprintf(out, "  %s: %s\n", f, errs[f])
			}
		}
		if msg := c.SubmitError(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("%s", types.UserMessage(err))
	}
	if w := c.Warning(); w != "" {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}

func loginCmd(a *app) *cobra.Command {
	var (
		role       string
		identifier string
		password   string
		remember   bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a provider or patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRole(role)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if id := credential.Classify(identifier); id.Kind != credential.KindInvalid {
				fmt.Fprintf(out, "signing in with %s %s\n", id.Kind, id.Normalized)
			}

			v := forms.NewValidator(nil)
			flow := forms.NewAuthFlow(a.session)
			ctx := cmd.Context()

			if r == types.RoleProvider {
				c := forms.NewController(v, forms.ProviderLoginForm{Identifier: identifier, Password: password, RememberMe: remember})
				if err := submitted(out, c, c.Submit(ctx, flow.ProviderLogin)); err != nil {
					return err
				}
				var user types.ProviderUser
				if _, err := a.session.LoadUser(ctx, r, &user); err != nil {
					return err
				}
				fmt.Fprintf(out, "signed in as %s %s (%s)\n", user.FirstName, user.LastName, user.Specialization)
				return nil
			}

			c := forms.NewController(v, forms.PatientLoginForm{Identifier: identifier, Password: password, RememberMe: remember})
			if err := submitted(out, c, c.Submit(ctx, flow.PatientLogin)); err != nil {
				return err
			}
			var user types.PatientUser
			if _, err := a.session.LoadUser(ctx, r, &user); err != nil {
				return err
			}
			fmt.Fprintf(out, "signed in as %s %s\n", user.FirstName, user.LastName)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(types.RoleProvider), "provider or patient")
	cmd.Flags().StringVar(&identifier, "identifier", "", "Email or phone number")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().BoolVar(&remember, "remember", false, "Keep the session for longer")
	_ = cmd.MarkFlagRequired("identifier")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRole(role)
			if err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context(), r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s signed out\n", r)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(types.RoleProvider), "provider or patient")
	return cmd
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func registerProviderCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "register-provider",
		Short: "Create a provider account from a JSON profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var form forms.ProviderRegistrationForm
			if err := readJSON(file, &form); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			c := forms.NewController(forms.NewValidator(nil), form)
			if err := submitted(out, c, c.Submit(cmd.Context(), forms.NewAuthFlow(a.session).ProviderRegister)); err != nil {
				return err
			}
			fmt.Fprintln(out, "provider registered; sign in with login --role provider")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Profile JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func registerPatientCmd(a *app) *cobra.Command {
	var (
		file   string
		resume bool
	)
	cmd := &cobra.Command{
		Use:   "register-patient",
		Short: "Create a patient account from a JSON profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			storage := a.session.Storage()

			var form forms.PatientRegistrationForm
			if resume {
				draft, ok, err := forms.LoadDraft(ctx, storage)
				if err != nil {
					return err
				}
				if ok {
					form = draft
				}
			}
			if file != "" {
				if err := readJSON(file, &form); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			c := forms.NewController(forms.NewValidator(nil), form)
			err := c.Submit(ctx, forms.NewAuthFlow(a.session).PatientRegister)
			if err != nil {
				if derr := forms.SaveDraft(ctx, storage, c.Values()); derr != nil {
					a.log.WithError(derr).Warn("Failed to save registration draft")
				} else {
					fmt.Fprintln(out, "draft saved; rerun with --resume to continue")
				}
			}
			if err := submitted(out, c, err); err != nil {
				return err
			}
			fmt.Fprintln(out, "patient registered; sign in with login --role patient")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Profile JSON file")
	cmd.Flags().BoolVar(&resume, "resume", false, "Start from the saved draft")
	return cmd
}

// providerModel refreshes the provider's schedule for the month around day
func providerModel(cmd *cobra.Command, a *app, providerID string, day time.Time) (*availability.Model, error) {
	if providerID == "" {
		var user types.ProviderUser
		ok, err := a.session.LoadUser(cmd.Context(), types.RoleProvider, &user)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("--provider is required when no provider is signed in")
		}
		providerID = user.ID
	}

	y, m, _ := day.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	res, err := a.session.RefreshAvailability(cmd.Context(), providerID, types.DateRange{
		StartDate: first.AddDate(0, 0, -7),
		EndDate:   first.AddDate(0, 1, 6),
	})
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	if res.Fallback {
		fmt.Fprintf(out, "warning: %s\n", types.UserMessage(res.Warning))
	}
	if len(res.Ignored) > 0 {
		fmt.Fprintf(out, "ignored unknown days: %s\n", strings.Join(res.Ignored, ", "))
	}
	return a.session.Model(providerID), nil
}

func printTemplate(out io.Writer, m *availability.Model) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tFROM\tTILL")
	for _, row := range m.WeeklyTemplate() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Day, row.FromTime, row.TillTime)
	}
	_ = tw.Flush()
	for _, b := range m.BlockDays() {
		fmt.Fprintf(out, "blocked %s %s-%s %s\n", b.Date, b.FromTime, b.TillTime, b.Reason)
	}
}

func printSlots(out io.Writer, slots []types.TimeSlot) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSTART\tEND\tSTATUS\tTYPE\tPATIENT")
	for _, s := range slots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.Date, s.StartTime, s.EndTime, s.Status, s.AppointmentType, s.PatientName)
	}
	_ = tw.Flush()
}

func printMonth(out io.Writer, grid [availability.GridCells]availability.GridCell) {
	fmt.Fprintln(out, " Sun  Mon  Tue  Wed  Thu  Fri  Sat")
	for i, cell := range grid {
		mark := " "
		switch {
		case cell.IsToday:
			mark = "*"
		case len(cell.Slots) > 0:
			mark = "+"
		}
		if cell.InMonth {
			fmt.Fprintf(out, " %2d%s ", cell.Date.Day(), mark)
		} else {
			fmt.Fprint(out, "   . ")
		}
		if i%7 == 6 {
			fmt.Fprintln(out)
		}
	}
}

func availabilityCmd(a *app) *cobra.Command {
	var (
		providerID string
		view       string
		date       string
		mockDays   int
	)
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show a provider's schedule as a day, week or month view",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := availability.ParseViewMode(view)
			if err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			m, err := providerModel(cmd, a, providerID, day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printTemplate(out, m)

			if mockDays > 0 {
				start := day
				if mode != availability.ViewDay {
					start, _ = availability.WeekRange(day)
				}
				fmt.Fprintf(out, "generated %d sample slots\n", m.GenerateMockSlots(start, mockDays))
			}

			if mode == availability.ViewMonth {
				printMonth(out, m.Calendar(day))
			}
			printSlots(out, m.View(mode, day))
			return nil
		},
	}
	cmd.Flags().StringVar(&providerID, "provider", "", "Provider id (default: signed-in provider)")
	cmd.Flags().StringVar(&view, "view", string(availability.ViewWeek), "day, week or month")
	cmd.Flags().StringVar(&date, "date", "", "Anchor date YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&mockDays, "mock-days", 0, "Fill this many days with sample slots")
	return cmd
}

func templatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the availability templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := availability.DefaultTemplates()
			if err := availability.ValidateCatalog(catalog); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSLOTS\tDEFAULT\tDESCRIPTION")
			for _, t := range catalog {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n", t.ID, t.Name, len(t.TimeSlots), t.IsDefault, t.Description)
			}
			return tw.Flush()
		},
	}
}

func applyTemplateCmd(a *app) *cobra.Command {
	var (
		providerID string
		template   string
		date       string
	)
	cmd := &cobra.Command{
		Use:   "apply-template",
		Short: "Apply an availability template to a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			catalog := availability.DefaultTemplates()
			tpl, ok := availability.FindTemplate(catalog, template)
			if template == "" {
				tpl, ok = availability.DefaultTemplate(catalog)
			}
			if !ok {
				return fmt.Errorf("unknown template %q", template)
			}

			m, err := providerModel(cmd, a, providerID, day)
			if err != nil {
				return err
			}
			slots, err := m.ApplyTemplate(tpl, day)
			if err != nil {
				return fmt.Errorf("%s", types.UserMessage(err))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "applied %q: %d slots\n", tpl.Name, len(slots))
			printSlots(out, slots)
			return nil
		},
	}
	cmd.Flags().StringVar(&providerID, "provider", "", "Provider id (default: signed-in provider)")
	cmd.Flags().StringVar(&template, "template", "", "Template id or name (default: the default template)")
	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD (default: today)")
	return cmd
}

func statsCmd(a *app) *cobra.Command {
	var (
		providerID string
		date       string
		days       int
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize slot utilization over sample slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			m, err := providerModel(cmd, a, providerID, day)
			if err != nil {
				return err
			}
			m.GenerateMockSlots(day, days)
			s := m.Stats()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "total\t%d\n", s.TotalSlots)
			fmt.Fprintf(tw, "available\t%d\n", s.AvailableSlots)
			fmt.Fprintf(tw, "booked\t%d\n", s.BookedSlots)
			fmt.Fprintf(tw, "blocked\t%d\n", s.BlockedSlots)
			fmt.Fprintf(tw, "tentative\t%d\n", s.TentativeSlots)
			fmt.Fprintf(tw, "break\t%d\n", s.BreakSlots)
			fmt.Fprintf(tw, "utilization\t%.0f%%\n", s.UtilizationRate)
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&providerID, "provider", "", "Provider id (default: signed-in provider)")
	cmd.Flags().StringVar(&date, "date", "", "First day YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to fill")
	return cmd
}

func createAvailabilityCmd(a *app) *cobra.Command {
	var (
		providerID string
		req        availability.AvailabilityRequest
		pattern    string
		reject     bool
	)
	cmd := &cobra.Command{
		Use:   "create-availability",
		Short: "Cut a time window into bookable slots, optionally repeating",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(req.Date)
			if err != nil {
				return err
			}
			req.Date = day.Format(types.DateLayout)
			req.Pattern = types.RecurrencePattern(pattern)

			m, err := providerModel(cmd, a, providerID, day)
			if err != nil {
				return err
			}
			if reject {
				m.SetConflictPolicy(availability.RejectOverlaps)
			}
			slots, err := m.CreateAvailability(req)
			if err != nil {
				return fmt.Errorf("%s", types.UserMessage(err))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %d slots\n", len(slots))
			printSlots(out, slots)
			return nil
		},
	}
	cmd.Flags().StringVar(&providerID, "provider", "", "Provider id (default: signed-in provider)")
	cmd.Flags().StringVar(&req.Date, "date", "", "First date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&req.StartTime, "start", "09:00", "Window start HH:MM")
	cmd.Flags().StringVar(&req.EndTime, "end", "17:00", "Window end HH:MM")
	cmd.Flags().IntVar(&req.SlotDuration, "duration", 30, "Slot length in minutes")
	cmd.Flags().IntVar(&req.BreakDuration, "break", 0, "Gap between slots in minutes")
	cmd.Flags().StringVar(&pattern, "repeat", "", "weekly, biweekly or monthly")
	cmd.Flags().StringVar(&req.Until, "until", "", "Last repeat date YYYY-MM-DD")
	cmd.Flags().BoolVar(&reject, "reject-overlaps", false, "Refuse slots overlapping existing ones")
	return cmd
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the session storage health and sign-in state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			health := monitoring.NewHealthManager("portal-cli", appVersion)
			if p, ok := a.session.Storage().(monitoring.Pinger); ok {
				health.RegisterChecker("storage", monitoring.NewPingChecker(p))
			}
			report := health.CheckHealth(ctx)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "storage\t%s\n", a.cfg.Storage.Backend)
			for _, c := range report.Checks {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Status, c.Message)
			}
			for _, role := range []types.UserRole{types.RoleProvider, types.RolePatient} {
				fmt.Fprintf(tw, "%s signed in\t%t\n", role, a.session.IsAuthenticated(ctx, role))
			}
			fmt.Fprintf(tw, "overall\t%s\n", report.Status)
			if err := tw.Flush(); err != nil {
				return err
			}
			if report.Status != monitoring.HealthStatusHealthy {
				return fmt.Errorf("storage is %s", report.Status)
			}
			return nil
		},
	}
}
