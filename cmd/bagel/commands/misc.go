package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bageldb/bagel-go/internal/version"
)

func newPingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the service is reachable",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, a *app, _ []string) error {
			hb, err := a.client.Ping(ctx)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]int64{"nanosecond heartbeat": hb})
		}),
	}
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI and server versions",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, a *app, _ []string) error {
			server, err := a.client.Version(ctx)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]string{"client": version.String(), "server": server})
		}),
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every collection on the server",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, a *app, _ []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all data; pass --yes to confirm")
			}
			return a.client.Reset(ctx)
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func newWaitlistCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "join-waitlist EMAIL",
		Short: "Join the hosted service waitlist",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			out, err := a.client.JoinWaitlist(ctx, args[0])
			if err != nil {
				return err
			}
			return a.printJSON(out)
		}),
	}
}

func newEmbedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "embed TEXT...",
		Short: "Embed texts with the configured embedding provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			vecs, err := a.client.Embed(ctx, args)
			if err != nil {
				return err
			}
			return a.printJSON(vecs)
		}),
	}
}
