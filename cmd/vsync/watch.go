package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vsync/internal/live"
	"github.com/vango-dev/vsync/pkg/protocol"
)

func watchCmd() *cobra.Command {
	var html bool

	cmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Mirror a served document and print every update",
		Long: `Connect to the /ws stream of a vsync server, mirror its document and
print one line per applied batch.

Examples:
  vsync watch ws://localhost:7331/ws
  vsync watch ws://localhost:7331/ws --html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := live.Dial(ctx, args[0], protocol.DefaultLimits())
			if err != nil {
				return err
			}
			defer client.Close()
			go func() {
				<-ctx.Done()
				client.Close()
			}()

			w := cmd.OutOrStdout()
			for {
				batch, err := client.Next(ctx)
				var em *protocol.ErrorMessage
				switch {
				case errors.As(err, &em):
					fmt.Fprintf(w, "server error: %s\n", em.Message)
					if em.IsFatal() {
						return em
					}
					continue
				case err != nil:
					if ctx.Err() != nil {
						return nil
					}
					return err
				}

				kind := "batch"
				if batch.Snapshot {
					kind = "snapshot"
				}
				fmt.Fprintf(w, "seq=%d %s mutations=%d\n", batch.Seq, kind, len(batch.Mutations))
				if html {
					info(w, "%s", client.HTML())
				}
			}
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Print the mirrored document after every batch")

	return cmd
}
