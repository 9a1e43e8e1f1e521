package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/parser"
)

// readSource reads a file, or stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

func parseType(s string) (model.DocType, error) {
	t := model.DocType(strings.ReplaceAll(s, "-", "_"))
	switch t {
	case model.DocInputList, model.DocGearList, model.DocRider:
		return t, nil
	}
	return "", fmt.Errorf("%w: type must be input_list, gear_list or rider", model.ErrInvalid)
}

func (a *App) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <input_list|gear_list|rider> <file|->",
		Short: "Parse a pasted document without saving anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(args[0])
			if err != nil {
				return err
			}
			text, err := readSource(cmd, args[1])
			if err != nil {
				return err
			}
			doc := parser.Parse(t, text)
			return a.emit(doc, func(w io.Writer) { printParsed(w, doc) })
		},
	}
}

func printParsed(w io.Writer, doc parser.ParsedDocument) {
	if doc.Empty() {
		fmt.Fprintln(w, "nothing recognised")
		return
	}
	switch doc.Type {
	case model.DocInputList:
		channelTable(w, doc.Channels, false)
	case model.DocGearList:
		fmt.Fprintln(w, "NAME\tCATEGORY\tQTY")
		for _, g := range doc.Gear {
			fmt.Fprintf(w, "%s\t%s\t%d\n", g.Name, g.Category, g.Quantity)
		}
	case model.DocRider:
		for _, s := range doc.Rider {
			fmt.Fprintf(w, "%s\t(%s)\n", s.Title, s.Kind)
			for _, item := range s.Items {
				fmt.Fprintf(w, "\t- %s\n", item)
			}
		}
	}
}

func (a *App) importCmd() *cobra.Command {
	var name, tourRef string
	cmd := &cobra.Command{
		Use:   "import <input_list|gear_list|rider> <file|->",
		Short: "Parse a document and apply it to the workspace",
		Long: `Parse a document and apply it to the workspace.

input_list replaces the input list, gear_list adds every recognised item to
the inventory. The source text is kept as a document in every case.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(args[0])
			if err != nil {
				return err
			}
			text, err := readSource(cmd, args[1])
			if err != nil {
				return err
			}
			doc := parser.Parse(t, text)
			if doc.Empty() {
				return fmt.Errorf("%w: nothing recognised in %s", model.ErrInvalid, args[1])
			}

			// everything that can fail is checked before the workspace changes
			stored := model.Document{Name: strings.TrimSpace(name), Type: t, Content: text}
			if t == model.DocGearList {
				stored.Type = model.DocAdvance
			}
			if stored.Name == "" {
				stored.Name = strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1]))
				if args[1] == "-" {
					stored.Name = string(t)
				}
			}
			if stored.Name == "" {
				return fmt.Errorf("%w: document name", model.ErrInvalid)
			}
			if tourRef != "" {
				if stored.TourID, err = a.tourID(tourRef); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			var summary string
			switch t {
			case model.DocInputList:
				if _, err := a.store.ReplaceInputList(ctx, doc.Channels); err != nil {
					return err
				}
				summary = fmt.Sprintf("%d channels", len(doc.Channels))
			case model.DocGearList:
				for _, g := range doc.Gear {
					if _, err := a.store.AddGear(ctx, g); err != nil {
						return err
					}
				}
				summary = fmt.Sprintf("%d gear items", len(doc.Gear))
			case model.DocRider:
				summary = fmt.Sprintf("%d rider sections", len(doc.Rider))
			}

			d, err := a.store.AddDocument(ctx, stored)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "imported %s as document %s\n", summary, shortID(d.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "document name (default: file name)")
	cmd.Flags().StringVar(&tourRef, "tour", "", "attach the document to a tour")
	return cmd
}

func (a *App) docCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "doc", Short: "Manage documents"}

	var docType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var docs []model.Document
			for _, d := range a.store.Snapshot().Documents {
				if docType == "" || string(d.Type) == docType {
					docs = append(docs, d)
				}
			}
			return a.emit(docs, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tTYPE\tTOUR\tUPDATED")
				for _, d := range docs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						shortID(d.ID), d.Name, d.Type, orDash(shortID(d.TourID)), d.UpdatedAt.Format("2006-01-02 15:04"))
				}
			})
		},
	}
	list.Flags().StringVar(&docType, "type", "", "only this document type")

	var addType, tourRef string
	add := &cobra.Command{
		Use:   "add <name> <file|->",
		Short: "Store a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSource(cmd, args[1])
			if err != nil {
				return err
			}
			d := model.Document{Name: args[0], Type: model.DocType(addType), Content: text}
			if tourRef != "" {
				if d.TourID, err = a.tourID(tourRef); err != nil {
					return err
				}
			}
			out, err := a.store.AddDocument(cmd.Context(), d)
			if err != nil {
				return err
			}
			return a.emit(out, func(w io.Writer) { fmt.Fprintf(w, "added document %s\t%s\n", shortID(out.ID), out.Name) })
		},
	}
	add.Flags().StringVar(&addType, "type", string(model.DocAdvance), "rider, input_list, stage_plot, day_sheet, settlement or advance")
	add.Flags().StringVar(&tourRef, "tour", "", "attach the document to a tour")

	cat := &cobra.Command{
		Use:   "cat <document>",
		Short: "Print a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.documentID(args[0])
			if err != nil {
				return err
			}
			for _, d := range a.store.Snapshot().Documents {
				if d.ID == id {
					_, err := io.WriteString(a.out, d.Content)
					return err
				}
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <document>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.documentID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteDocument(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted document %s\n", shortID(id))
			return nil
		},
	}

	cmd.AddCommand(list, add, cat, rm)
	return cmd
}
