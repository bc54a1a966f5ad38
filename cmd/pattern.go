package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// CreatePatternCmd creates the pattern command with list, playing, play
// and stop subcommands.
func CreatePatternCmd() *cobra.Command {
	var conn ClientOptions

	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "List, play and stop LED patterns",
	}
	conn.addFlags(cmd.PersistentFlags())

	exit := func(code int) {
		if code != 0 {
			os.Exit(code)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List patterns",
		Args:    cobra.NoArgs,
		Aliases: []string{"ls"},
		Run: func(c *cobra.Command, _ []string) {
			exit(listPatterns(c.Context(), NewClient(conn), false, c.OutOrStdout()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "playing",
		Short:   "List playing patterns",
		Args:    cobra.NoArgs,
		Aliases: []string{"list_playing"},
		Run: func(c *cobra.Command, _ []string) {
			exit(listPatterns(c.Context(), NewClient(conn), true, c.OutOrStdout()))
		},
	})

	var retrigger bool
	play := &cobra.Command{
		Use:   "play <pattern>",
		Short: "Play a pattern",
		Args:  cobra.ExactArgs(1),
		Run: func(c *cobra.Command, args []string) {
			err := NewClient(conn).Play(ctxOrBackground(c.Context()), args[0], retrigger)
			exit(reportPatternResult(c.OutOrStdout(), err))
		},
	}
	play.Flags().BoolVarP(&retrigger, "retrigger", "r", false, "Replay the pattern if it is already playing")
	cmd.AddCommand(play)

	cmd.AddCommand(&cobra.Command{
		Use:   "stop <pattern>",
		Short: "Stop a playing pattern",
		Args:  cobra.ExactArgs(1),
		Run: func(c *cobra.Command, args []string) {
			err := NewClient(conn).Stop(ctxOrBackground(c.Context()), args[0])
			exit(reportPatternResult(c.OutOrStdout(), err))
		},
	})

	return cmd
}

func listPatterns(ctx context.Context, client *Client, playing bool, stdout io.Writer) int {
	ctx = ctxOrBackground(ctx)
	var (
		names []string
		err   error
	)
	if playing {
		names, err = client.Playing(ctx)
	} else {
		names, err = client.Patterns(ctx)
	}
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return 0
}

func reportPatternResult(stdout io.Writer, err error) int {
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}
	return 0
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
