package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tourflow/tourflow/internal/model"
)

func (a *App) crewCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "crew", Short: "Manage crews and what they can see"}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a crew",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.store.AddCrew(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(c, func(w io.Writer) { fmt.Fprintf(w, "created crew %s\t%s\n", shortID(c.ID), c.Name) })
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List crews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			crews := a.store.Snapshot().Crews
			return a.emit(crews, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tDOCUMENTS")
				for _, c := range crews {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", shortID(c.ID), c.Name, len(c.Members), len(c.Documents))
				}
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <crew>",
		Short: "Show members and shared documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.crew(args[0])
			if err != nil {
				return err
			}
			return a.emit(c, func(w io.Writer) {
				fmt.Fprintln(w, c.Name)
				fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPOSITION\tROLE")
				for _, m := range c.Members {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(m.ID), orDash(m.Name), orDash(m.Email), orDash(m.Position), m.Role)
				}
				if len(c.Documents) > 0 {
					fmt.Fprintln(w)
					fmt.Fprintln(w, "DOCUMENT\tTYPE\tSHARED")
					for _, d := range c.Documents {
						fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Type, d.SharedAt.Format("2006-01-02"))
					}
				}
			})
		},
	}

	var m model.CrewMemberLink
	var role string
	memberAdd := &cobra.Command{
		Use:   "member-add <crew> <name>",
		Short: "Add someone to a crew",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.crew(args[0])
			if err != nil {
				return err
			}
			m.Name = args[1]
			m.Role = model.CrewRole(role)
			out, err := a.store.AddCrewMember(cmd.Context(), c.ID, m)
			if err != nil {
				return err
			}
			return a.emit(out, func(w io.Writer) { fmt.Fprintf(w, "added %s to %s\n", out.Name, c.Name) })
		},
	}
	memberAdd.Flags().StringVar(&m.Email, "email", "", "")
	memberAdd.Flags().StringVar(&m.Position, "position", "", "e.g. FOH, monitors, backline")
	memberAdd.Flags().StringVar(&role, "role", string(model.CrewMember), "admin or member")

	memberRm := &cobra.Command{
		Use:   "member-rm <crew> <member>",
		Short: "Remove someone from a crew",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.crew(args[0])
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(c.Members))
			for _, m := range c.Members {
				ids = append(ids, m.ID)
			}
			id, err := matchID("member", args[1], ids)
			if err != nil {
				return err
			}
			if err := a.store.RemoveCrewMember(cmd.Context(), c.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "removed member %s\n", shortID(id))
			return nil
		},
	}

	share := &cobra.Command{
		Use:   "share <crew> <document>",
		Short: "Share a document with a crew",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.crew(args[0])
			if err != nil {
				return err
			}
			docID, err := a.documentID(args[1])
			if err != nil {
				return err
			}
			d, err := a.store.ShareDocument(cmd.Context(), c.ID, docID)
			if err != nil {
				return err
			}
			return a.emit(d, func(w io.Writer) { fmt.Fprintf(w, "shared %s with %s\n", d.Name, c.Name) })
		},
	}

	rm := &cobra.Command{
		Use:   "rm <crew>",
		Short: "Delete a crew",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.crew(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteCrew(cmd.Context(), c.ID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted crew %s\n", c.Name)
			return nil
		},
	}

	cmd.AddCommand(add, list, show, memberAdd, memberRm, share, rm)
	return cmd
}
