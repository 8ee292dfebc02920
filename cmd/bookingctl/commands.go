package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
	"github.com/hackgods/branch-appointment-booking/internal/branch"
	"github.com/hackgods/branch-appointment-booking/internal/commit"
	"github.com/hackgods/branch-appointment-booking/internal/db"
	"github.com/hackgods/branch-appointment-booking/internal/logging"
)

type rootOptions struct {
	postgresDSN string
	seed        uint64
	logLevel    string

	// now is the calendar reference; tests pin it.
	now func() time.Time
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootOptions{now: time.Now})
}

func newRootCmdWith(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookingctl",
		Short:         "Book branch appointments from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.postgresDSN, "postgres-dsn", os.Getenv("POSTGRES_DSN"), "Postgres DSN; built-in branches and a log-only sink when empty")
	root.PersistentFlags().Uint64Var(&opts.seed, "seed", 0, "calendar seed; 0 picks a random calendar")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newTypesCmd())
	root.AddCommand(newBranchesCmd(opts))
	root.AddCommand(newSlotsCmd(opts))
	root.AddCommand(newBookCmd(opts))

	return root
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List appointment types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range booking.AppointmentTypes {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func newBranchesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "branches <postal-code>",
		Short: "List branches serving a postal code, nearest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			branches, err := env.directory.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tDISTANCE\tPHONE")
			for _, b := range branches {
				fmt.Fprintf(tw, "%s\t%s\t%s, %s, %s %s\t%s\t%s\n",
					b.ID, b.Name, b.Address, b.City, b.Region, b.PostalCode, b.Distance, b.Phone)
			}
			return tw.Flush()
		},
	}
}

func newSlotsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "slots [date]",
		Short: "Show bookable dates, or the slots of one date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal := booking.GenerateCalendar(opts.now(), opts.randomSource())
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, d := range cal.Dates() {
					fmt.Fprintf(out, "%s  %s\n", d, booking.ShortDate(d))
				}
				return nil
			}

			slots, ok := cal.QueryDay(args[0])
			if !ok {
				return fmt.Errorf("%s is not a bookable date", args[0])
			}
			fmt.Fprintln(out, booking.LongDate(args[0]))
			for _, s := range slots {
				state := "open"
				if booking.IsHeld(s) {
					state = "unavailable"
				}
				fmt.Fprintf(out, "  %-8s  %s\n", s.Time, state)
			}
			return nil
		},
	}
}

func newBookCmd(opts *rootOptions) *cobra.Command {
	var (
		apptType string
		postal   string
		branchID string
		date     string
		slotTime string
		contact  booking.ContactInfo
	)

	c := &cobra.Command{
		Use:   "book",
		Short: "Run a booking through every step and print the confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer env.close()

			if slotTime != "" && date == "" {
				return fmt.Errorf("--time needs --date")
			}

			t, ok := booking.ParseAppointmentType(apptType)
			if !ok {
				return fmt.Errorf("invalid --type %q, see bookingctl types", apptType)
			}

			w := booking.NewWizard(nil,
				booking.WithClock(opts.now),
				booking.WithRandomSource(opts.randomSource()),
			)
			_ = w.SetAppointmentType(t)
			_ = w.SetPostalCode(postal)
			if err := step(w, "appointment details"); err != nil {
				return err
			}

			branches, err := env.directory.Lookup(ctx, postal)
			if err != nil {
				return err
			}
			b, ok := branch.Find(branches, branchID)
			if branchID == "" && len(branches) > 0 {
				b, ok = branches[0], true
			}
			if !ok {
				return fmt.Errorf("branch %q does not serve %s", branchID, postal)
			}
			_ = w.SetBranch(b)
			if err := step(w, "branch"); err != nil {
				return err
			}

			if slotTime == "" {
				slot, found := firstOpenSlot(w.Calendar(), date)
				if !found {
					return fmt.Errorf("no open slot available")
				}
				date, slotTime = slot.Date, slot.Time
			}
			if err := w.SelectTimeSlot(date, slotTime); err != nil {
				return err
			}
			if err := step(w, "time"); err != nil {
				return err
			}

			contact.Phone = booking.FormatPhone(contact.Phone)
			_ = w.SetContactInfo(contact)
			if err := step(w, "contact"); err != nil {
				return err
			}

			moved, err := w.NextWithCommit(func(rec booking.BookingRecord) error {
				return env.sink.Commit(ctx, rec)
			})
			if err != nil {
				return err
			}
			if !moved {
				return fmt.Errorf("review refused the booking")
			}

			rec, _ := w.Record()
			fmt.Fprint(cmd.OutOrStdout(), rec.Text())
			return nil
		},
	}

	c.Flags().StringVar(&apptType, "type", string(booking.TypeGeneralInquiry), "appointment type")
	c.Flags().StringVar(&postal, "postal", "", "5-digit postal code")
	c.Flags().StringVar(&branchID, "branch", "", "branch id; nearest branch when empty")
	c.Flags().StringVar(&date, "date", "", "YYYY-MM-DD; first open slot when empty")
	c.Flags().StringVar(&slotTime, "time", "", `slot label such as "10:00 AM"; needs --date`)
	c.Flags().StringVar(&contact.Name, "name", "", "full name")
	c.Flags().StringVar(&contact.Email, "email", "", "email address")
	c.Flags().StringVar(&contact.Phone, "phone", "", "10-digit phone number")
	_ = c.MarkFlagRequired("postal")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("phone")

	return c
}

func step(w *booking.Wizard, name string) error {
	moved, err := w.Next()
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("%s: input incomplete or invalid", name)
	}
	return nil
}

// firstOpenSlot returns the earliest open slot, on date when it is set.
func firstOpenSlot(cal *booking.Calendar, date string) (booking.TimeSlot, bool) {
	dates := cal.Dates()
	if date != "" {
		dates = []string{date}
	}
	for _, d := range dates {
		slots, _ := cal.QueryDay(d)
		for _, s := range slots {
			if !booking.IsHeld(s) {
				return s, true
			}
		}
	}
	return booking.TimeSlot{}, false
}

type cliEnv struct {
	directory branch.Directory
	sink      commit.Sink
	close     func()
}

func (o *rootOptions) open(ctx context.Context) (*cliEnv, error) {
	log, err := logging.New("dev", o.logLevel)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(o.postgresDSN) == "" {
		return &cliEnv{
			directory: branch.NewStaticDirectory(nil),
			sink:      commit.NewLogSink(log),
			close:     func() { _ = log.Sync() },
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := db.ConnectPostgres(connectCtx, o.postgresDSN)
	if err != nil {
		return nil, err
	}
	log.Debug("connected to Postgres")

	return &cliEnv{
		directory: branch.NewPgDirectory(pool),
		sink:      commit.NewPgSink(pool, nil, log.With(zap.String("component", "bookingctl"))),
		close: func() {
			pool.Close()
			_ = log.Sync()
		},
	}, nil
}

func (o *rootOptions) randomSource() booking.RandomSource {
	if o.seed == 0 {
		return booking.NewRandomSource()
	}
	return gofakeit.New(o.seed)
}
