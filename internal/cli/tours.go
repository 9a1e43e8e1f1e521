package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tourflow/tourflow/internal/daysheet"
	"github.com/tourflow/tourflow/internal/model"
)

func (a *App) tourCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tour", Short: "Manage tours"}

	var t model.Tour
	var status string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Name = args[0]
			t.Status = model.TourStatus(status)
			out, err := a.store.AddTour(cmd.Context(), t)
			if err != nil {
				return err
			}
			return a.emit(out, func(w io.Writer) {
				fmt.Fprintf(w, "created tour %s\t%s\n", shortID(out.ID), out.Name)
			})
		},
	}
	add.Flags().StringVar(&t.Artist, "artist", "", "artist name")
	add.Flags().StringVar(&t.StartDate, "start", "", "first day (YYYY-MM-DD)")
	add.Flags().StringVar(&t.EndDate, "end", "", "last day (YYYY-MM-DD)")
	add.Flags().StringVar(&status, "status", "", "upcoming, active or completed")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tours := a.store.Snapshot().Tours
			today := time.Now()
			for i := range tours {
				tours[i].Status = tours[i].StatusOn(today)
			}
			return a.emit(tours, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tARTIST\tSTATUS\tDATES\tSHOWS")
				for _, t := range tours {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
						shortID(t.ID), t.Name, t.Artist, t.Status, dateRange(t), t.ShowCount())
				}
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <tour>",
		Short: "Show a tour with its shows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.tourID(args[0])
			if err != nil {
				return err
			}
			t, err := a.store.Tour(id)
			if err != nil {
				return err
			}
			t.Status = t.StatusOn(time.Now())
			return a.emit(t, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Artist)
				fmt.Fprintf(w, "%s\t%s\n", t.Status, dateRange(t))
				fmt.Fprintln(w)
				fmt.Fprintln(w, "ID\tDATE\tVENUE\tCITY\tSTATUS\tSETTLED")
				for _, s := range t.Shows {
					settled := "-"
					if s.Settlement != nil {
						settled = dollars(s.Settlement.PayoutCents())
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						shortID(s.ID), orDash(s.Date), s.Venue, orDash(s.City), s.Status, settled)
				}
			})
		},
	}

	var patch tourFlags
	update := &cobra.Command{
		Use:   "update <tour>",
		Short: "Change tour fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.tourID(args[0])
			if err != nil {
				return err
			}
			out, err := a.store.UpdateTour(cmd.Context(), id, patch.patch(cmd))
			if err != nil {
				return err
			}
			return a.emit(out, func(w io.Writer) { fmt.Fprintf(w, "updated tour %s\n", shortID(out.ID)) })
		},
	}
	patch.bind(update)

	rm := &cobra.Command{
		Use:   "rm <tour>",
		Short: "Delete a tour and its shows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.tourID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteTour(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted tour %s\n", shortID(id))
			return nil
		},
	}

	cmd.AddCommand(add, list, show, update, rm)
	return cmd
}

type tourFlags struct {
	name, artist, status, start, end string
}

func (f *tourFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "tour name")
	cmd.Flags().StringVar(&f.artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&f.status, "status", "", "upcoming, active or completed")
	cmd.Flags().StringVar(&f.start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day (YYYY-MM-DD)")
}

// patch only carries the flags that were given.
func (f *tourFlags) patch(cmd *cobra.Command) model.TourPatch {
	var p model.TourPatch
	set := cmd.Flags().Changed
	if set("name") {
		p.Name = &f.name
	}
	if set("artist") {
		p.Artist = &f.artist
	}
	if set("status") {
		s := model.TourStatus(f.status)
		p.Status = &s
	}
	if set("start") {
		p.StartDate = &f.start
	}
	if set("end") {
		p.EndDate = &f.end
	}
	return p
}

func (a *App) showCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "show", Short: "Manage shows on a tour"}

	var s model.Show
	add := &cobra.Command{
		Use:   "add <tour> <venue>",
		Short: "Add a show to a tour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.tourID(args[0])
			if err != nil {
				return err
			}
			s.Venue = args[1]
			out, err := a.store.AddShow(cmd.Context(), id, s)
			if err != nil {
				return err
			}
			return a.emit(out, func(w io.Writer) {
				fmt.Fprintf(w, "added show %s\t%s\t%s\n", shortID(out.ID), out.Venue, orDash(out.Date))
			})
		},
	}
	f := add.Flags()
	f.StringVar(&s.Date, "date", "", "show date (YYYY-MM-DD)")
	f.StringVar(&s.City, "city", "", "")
	f.StringVar(&s.State, "state", "", "")
	f.StringVar(&s.Country, "country", "", "")
	f.IntVar(&s.Capacity, "capacity", 0, "venue capacity")
	f.StringVar(&s.Timeline.LoadIn, "load-in", "", "HH:MM")
	f.StringVar(&s.Timeline.Soundcheck, "soundcheck", "", "HH:MM")
	f.StringVar(&s.Timeline.Doors, "doors", "", "HH:MM")
	f.StringVar(&s.Timeline.ShowTime, "show-time", "", "HH:MM")
	f.StringVar(&s.Timeline.Curfew, "curfew", "", "HH:MM")
	f.StringVar(&s.Contact.Name, "contact", "", "venue contact name")
	f.StringVar(&s.Contact.Email, "contact-email", "", "")
	f.StringVar(&s.Contact.Phone, "contact-phone", "", "")
	f.StringVar(&s.Notes, "notes", "", "")

	rm := &cobra.Command{
		Use:   "rm <show>",
		Short: "Remove a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sh, err := a.findShow(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteShow(cmd.Context(), sh.ID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted show %s\n", shortID(sh.ID))
			return nil
		},
	}

	var money struct{ guarantee, gross, expenses, merch string }
	var set model.Settlement
	settle := &cobra.Command{
		Use:   "settle <show>",
		Short: "Record the settlement for a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sh, err := a.findShow(args[0])
			if err != nil {
				return err
			}
			for _, m := range []struct {
				in  string
				dst *int64
			}{
				{money.guarantee, &set.GuaranteeCents},
				{money.gross, &set.GrossCents},
				{money.expenses, &set.ExpensesCents},
				{money.merch, &set.MerchCents},
			} {
				if *m.dst, err = parseCents(m.in); err != nil {
					return err
				}
			}
			out, err := a.store.SetSettlement(cmd.Context(), sh.ID, set)
			if err != nil {
				return err
			}
			st := *out.Settlement
			return a.emit(out, func(w io.Writer) {
				fmt.Fprintf(w, "Guarantee\t%s\n", dollars(st.GuaranteeCents))
				fmt.Fprintf(w, "Gross\t%s\n", dollars(st.GrossCents))
				fmt.Fprintf(w, "Expenses\t%s\n", dollars(st.ExpensesCents))
				fmt.Fprintf(w, "Net\t%s\n", dollars(st.NetCents()))
				fmt.Fprintf(w, "Percentage\t%.1f%%\n", st.Percentage)
				fmt.Fprintf(w, "Payout\t%s\n", dollars(st.PayoutCents()))
				fmt.Fprintf(w, "Merch\t%s\n", dollars(st.MerchCents))
			})
		},
	}
	sf := settle.Flags()
	sf.StringVar(&money.guarantee, "guarantee", "", "guarantee in dollars")
	sf.StringVar(&money.gross, "gross", "", "gross ticket sales in dollars")
	sf.StringVar(&money.expenses, "expenses", "", "show expenses in dollars")
	sf.StringVar(&money.merch, "merch", "", "merch sales in dollars")
	sf.Float64Var(&set.Percentage, "percentage", 0, "artist share of the net (0-100)")
	sf.StringVar(&set.Notes, "notes", "", "")

	var outDir string
	sheet := &cobra.Command{
		Use:   "daysheet <show>",
		Short: "Print or save the day sheet for a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, sh, err := a.findShow(args[0])
			if err != nil {
				return err
			}
			text := daysheet.Render(t, sh)
			if outDir == "" {
				_, err := io.WriteString(a.out, text)
				return err
			}
			path := filepath.Join(outDir, daysheet.Title(t, sh)+".txt")
			if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "wrote %s\n", path)
			return nil
		},
	}
	sheet.Flags().StringVarP(&outDir, "out", "o", "", "write the sheet into this directory")

	cmd.AddCommand(add, rm, settle, sheet)
	return cmd
}

func dateRange(t model.Tour) string {
	switch {
	case t.StartDate == "":
		return "-"
	case t.EndDate == "" || t.EndDate == t.StartDate:
		return t.StartDate
	}
	return t.StartDate + " to " + t.EndDate
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
