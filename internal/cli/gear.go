package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tourflow/tourflow/internal/model"
)

func (a *App) gearCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "gear", Short: "Manage the gear inventory"}

	var g model.GearItem
	var category, condition string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a gear item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g.Name = args[0]
			g.Category = model.GearCategory(category)
			g.Condition = model.GearCondition(condition)
			out, err := a.store.AddGear(cmd.Context(), g)
			if err != nil {
				return err
			}
			return a.emit(out, func(w io.Writer) {
				fmt.Fprintf(w, "added %s\t%s x%d\t%s\n", shortID(out.ID), out.Name, out.Quantity, out.Category)
			})
		},
	}
	f := add.Flags()
	f.StringVar(&category, "category", "", "gear category (default other)")
	f.StringVar(&condition, "condition", "", "excellent, good, fair or needs_repair")
	f.IntVarP(&g.Quantity, "qty", "n", 1, "quantity")
	f.Float64Var(&g.WeightKg, "weight", 0, "weight per piece in kg")
	f.StringVar(&g.Dimensions, "dimensions", "", "")
	f.StringVar(&g.Location, "location", "", "")
	f.BoolVar(&g.FlyPack, "fly", false, "part of the fly pack")
	f.StringVar(&g.Notes, "notes", "", "")

	var filter struct {
		category string
		fly      bool
		query    string
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List gear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []model.GearItem
			q := strings.ToLower(filter.query)
			for _, g := range a.store.Snapshot().Gear {
				if filter.category != "" && string(g.Category) != filter.category {
					continue
				}
				if filter.fly && !g.FlyPack {
					continue
				}
				if q != "" && !strings.Contains(strings.ToLower(g.Name), q) {
					continue
				}
				items = append(items, g)
			}
			return a.emit(items, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tQTY\tCONDITION\tFLY\tWEIGHT")
				for _, g := range items {
					fly := ""
					if g.FlyPack {
						fly = "yes"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%.1f\n",
						shortID(g.ID), g.Name, g.Category, g.Quantity, g.Condition, fly, g.WeightKg)
				}
			})
		},
	}
	list.Flags().StringVar(&filter.category, "category", "", "only this category")
	list.Flags().BoolVar(&filter.fly, "fly", false, "only fly pack gear")
	list.Flags().StringVarP(&filter.query, "query", "q", "", "name contains")

	cycle := a.gearAction("cycle", "Advance the condition of a gear item", func(cmd *cobra.Command, id string) (model.GearItem, error) {
		return a.store.CycleGearCondition(cmd.Context(), id)
	})
	fly := a.gearAction("fly", "Toggle fly pack membership", func(cmd *cobra.Command, id string) (model.GearItem, error) {
		return a.store.ToggleFlyPack(cmd.Context(), id)
	})

	rm := &cobra.Command{
		Use:   "rm <gear>",
		Short: "Delete a gear item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.gearID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteGear(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted gear %s\n", shortID(id))
			return nil
		},
	}

	manifest := &cobra.Command{
		Use:   "manifest",
		Short: "Fly pack and ground totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := model.BuildManifest(a.store.Snapshot().Gear)
			return a.emit(m, func(w io.Writer) {
				fmt.Fprintln(w, "\tITEMS\tPIECES\tWEIGHT KG")
				fmt.Fprintf(w, "fly pack\t%d\t%d\t%.1f\n", m.FlyPack.Items, m.FlyPack.Pieces, m.FlyPack.WeightKg)
				fmt.Fprintf(w, "ground\t%d\t%d\t%.1f\n", m.Ground.Items, m.Ground.Pieces, m.Ground.WeightKg)
			})
		},
	}

	cmd.AddCommand(add, list, cycle, fly, rm, manifest)
	return cmd
}

func (a *App) gearAction(use, short string, fn func(*cobra.Command, string) (model.GearItem, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <gear>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.gearID(args[0])
			if err != nil {
				return err
			}
			g, err := fn(cmd, id)
			if err != nil {
				return err
			}
			return a.emit(g, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\tcondition %s\tfly pack %t\n", shortID(g.ID), g.Name, g.Condition, g.FlyPack)
			})
		},
	}
}

func (a *App) inputsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "inputs", Short: "Edit the 32 channel input list"}

	var all bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the input list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chs := a.store.Snapshot().InputList
			return a.emit(chs, func(w io.Writer) { channelTable(w, chs, all) })
		},
	}
	show.Flags().BoolVarP(&all, "all", "a", false, "include unpatched channels")

	var ch struct {
		source, mic, di, stand, notes string
		phantom, pad                  bool
	}
	set := &cobra.Command{
		Use:   "set <channel>",
		Short: "Patch one channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return model.ErrChannelRange
			}
			var p model.ChannelPatch
			changed := cmd.Flags().Changed
			for _, f := range []struct {
				name string
				dst  **string
				val  *string
			}{
				{"source", &p.Source, &ch.source},
				{"mic", &p.Mic, &ch.mic},
				{"di", &p.DI, &ch.di},
				{"stand", &p.Stand, &ch.stand},
				{"notes", &p.Notes, &ch.notes},
			} {
				if changed(f.name) {
					*f.dst = f.val
				}
			}
			if changed("phantom") {
				p.Phantom = &ch.phantom
			}
			if changed("pad") {
				p.Pad = &ch.pad
			}
			out, err := a.store.SetChannel(cmd.Context(), n, p)
			if err != nil {
				return err
			}
			return a.emit(out, func(w io.Writer) { channelTable(w, []model.InputChannel{out}, true) })
		},
	}
	f := set.Flags()
	f.StringVar(&ch.source, "source", "", "instrument or source")
	f.StringVar(&ch.mic, "mic", "", "microphone")
	f.StringVar(&ch.di, "di", "", "DI box")
	f.StringVar(&ch.stand, "stand", "", "stand type")
	f.StringVar(&ch.notes, "notes", "", "")
	f.BoolVar(&ch.phantom, "phantom", false, "48V phantom power")
	f.BoolVar(&ch.pad, "pad", false, "input pad")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear every channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.ResetInputList(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "input list cleared")
			return nil
		},
	}

	cmd.AddCommand(show, set, reset)
	return cmd
}

func channelTable(w io.Writer, chs []model.InputChannel, all bool) {
	fmt.Fprintln(w, "CH\tSOURCE\tMIC\tDI\tSTAND\t48V\tPAD\tNOTES")
	for _, c := range chs {
		if !all && c.Empty() {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Number, c.Source, c.Mic, c.DI, c.Stand, flag(c.Phantom), flag(c.Pad), c.Notes)
	}
}

func flag(b bool) string {
	if b {
		return "x"
	}
	return ""
}
