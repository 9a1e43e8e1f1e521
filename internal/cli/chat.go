package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tourflow/tourflow/internal/assistant"
)

func (a *App) newAssistant() *assistant.Assistant {
	return assistant.New(
		a.newCompleter(a.cfg, a.log),
		storeTranscript{a.store},
		a.cfg.Assistant.HistoryLimit,
		a.log,
	)
}

func (a *App) chatCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "chat", Short: "Talk to the tour assistant"}

	ask := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("message is empty")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
			defer cancel()
			reply, err := a.newAssistant().Send(ctx, 0, text, a.store.Snapshot().Tours)
			if err != nil {
				return err
			}
			return a.emit(reply, func(w io.Writer) { fmt.Fprintln(w, reply.Assistant.Content) })
		},
	}

	history := &cobra.Command{
		Use:   "history",
		Short: "Print the conversation so far",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := a.newAssistant().History(cmd.Context(), 0)
			if err != nil {
				return err
			}
			return a.emit(msgs, func(w io.Writer) {
				for _, m := range msgs {
					fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Local().Format("Jan 2 15:04"), m.Role, m.Content)
				}
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.newAssistant().Clear(cmd.Context(), 0); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "conversation cleared")
			return nil
		},
	}

	cmd.AddCommand(ask, history, clearCmd)
	return cmd
}
