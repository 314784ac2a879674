package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mobtime/internal/bootstrap"
	sessiondto "mobtime/internal/modules/session/dto"
	"mobtime/internal/platform/config"
	"mobtime/internal/platform/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var homePath string

	root := &cobra.Command{
		Use:           "mobtime",
		Short:         "Mob programming rotation timer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&homePath, "home", config.DefaultHome(), "directory holding state, history, plugins and config.yaml")

	root.AddCommand(newTUICmd(&homePath))
	root.AddCommand(newRunCmd(&homePath))
	root.AddCommand(newStatusCmd(&homePath))
	root.AddCommand(newMemberCmd(&homePath))
	root.AddCommand(newIntervalCmd(&homePath))
	root.AddCommand(newAlertCmd(&homePath, "sound", "Turn the rotation sound on or off"))
	root.AddCommand(newAlertCmd(&homePath, "notify", "Turn the desktop notification on or off"))
	root.AddCommand(newAvatarsCmd(&homePath))
	root.AddCommand(newHistoryCmd(&homePath))
	root.AddCommand(newPluginCmd(&homePath))
	root.AddCommand(newVersionCmd())
	return root
}

func loadApp(homePath string, opts bootstrap.Options) (*bootstrap.App, error) {
	cfg, err := config.New(homePath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(context.Background(), cfg, opts)
}

// withApp wires the app, runs fn and releases it. Close errors are reported
// only when fn succeeded.
func withApp(homePath string, opts bootstrap.Options, fn func(*bootstrap.App) error) (err error) {
	app, err := loadApp(homePath, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(app)
}

func newTUICmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the mobtime terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(*homePath, bootstrap.Options{}, bootstrap.RunTUI)
		},
	}
}

func newRunCmd(homePath *string) *cobra.Command {
	var start bool
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the countdown headless until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(*homePath, bootstrap.Options{LogToStderr: true}, func(app *bootstrap.App) error {
				if start {
					status, err := app.SessionCLI.Start(ctx)
					if err != nil {
						return err
					}
					printStatus(cmd.OutOrStdout(), status)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "running; press ctrl+c to exit")
				err := app.SessionCLI.Run(ctx, app.Config.TickInterval)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	run.Flags().BoolVar(&start, "start", false, "start the countdown immediately")
	return run
}

func newStatusCmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show interval, alerts and rotation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
				status, err := app.SessionCLI.Status(context.Background())
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func newMemberCmd(homePath *string) *cobra.Command {
	member := &cobra.Command{Use: "member", Short: "Manage the mob roster"}

	member.AddCommand(&cobra.Command{
		Use:   "add <username>",
		Short: "Append a participant to the rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return statusCommand(*homePath, cmd.OutOrStdout(), func(ctx context.Context, app *bootstrap.App) (sessiondto.StatusOutput, error) {
				return app.SessionCLI.AddMember(ctx, args[0])
			})
		},
	})

	member.AddCommand(&cobra.Command{
		Use:   "remove <username>",
		Short: "Remove a participant from the rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return statusCommand(*homePath, cmd.OutOrStdout(), func(ctx context.Context, app *bootstrap.App) (sessiondto.StatusOutput, error) {
				return app.SessionCLI.RemoveMember(ctx, args[0])
			})
		},
	})

	member.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List participants in rotation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
				status, err := app.SessionCLI.Status(context.Background())
				if err != nil {
					return err
				}
				printParticipants(cmd.OutOrStdout(), status)
				return nil
			})
		},
	})

	member.AddCommand(&cobra.Command{
		Use:   "shuffle",
		Short: "Randomise the rotation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return statusCommand(*homePath, cmd.OutOrStdout(), func(ctx context.Context, app *bootstrap.App) (sessiondto.StatusOutput, error) {
				return app.SessionCLI.Shuffle(ctx)
			})
		},
	})
	return member
}

func newIntervalCmd(homePath *string) *cobra.Command {
	interval := &cobra.Command{Use: "interval", Short: "Show or change the rotation interval"}

	interval.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the interval as HH:MM:SS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
				status, err := app.SessionCLI.Status(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), status.Interval)
				return nil
			})
		},
	})

	var hours, minutes, seconds string
	set := &cobra.Command{
		Use:   "set [--hours H] [--minutes M] [--seconds S]",
		Short: "Change interval components; omitted components are kept",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if hours == "" && minutes == "" && seconds == "" {
				return fmt.Errorf("at least one of --hours, --minutes or --seconds is required")
			}
			return statusCommand(*homePath, cmd.OutOrStdout(), func(ctx context.Context, app *bootstrap.App) (sessiondto.StatusOutput, error) {
				return app.SessionCLI.SetInterval(ctx, hours, minutes, seconds)
			})
		},
	}
	set.Flags().StringVar(&hours, "hours", "", "hours component")
	set.Flags().StringVar(&minutes, "minutes", "", "minutes component")
	set.Flags().StringVar(&seconds, "seconds", "", "seconds component")
	interval.AddCommand(set)
	return interval
}

func newAlertCmd(homePath *string, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:       name + " <on|off>",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			return statusCommand(*homePath, cmd.OutOrStdout(), func(ctx context.Context, app *bootstrap.App) (sessiondto.StatusOutput, error) {
				if name == "sound" {
					return app.SessionCLI.SetSound(ctx, enabled)
				}
				return app.SessionCLI.SetNotification(ctx, enabled)
			})
		},
	}
}

func newAvatarsCmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "avatars",
		Short: "Check that every participant's avatar can be loaded",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.ProbeAvatars(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "checked=%d fallback=%d\n", out.Checked, len(out.Failed))
				for _, name := range out.Failed {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
				}
				return nil
			})
		},
	}
}

func newHistoryCmd(homePath *string) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Rotation history"}

	var listLimit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent rotations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
				rotations, err := app.SessionCLI.History(context.Background(), listLimit)
				if err != nil {
					return err
				}
				if len(rotations) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no rotations")
					return nil
				}
				for _, r := range rotations {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s -> %s\t%s\n",
						r.RotatedAt.Local().Format("2006-01-02 15:04:05"), r.Previous, r.Next, r.Elapsed)
				}
				return nil
			})
		},
	}
	list.Flags().IntVar(&listLimit, "limit", 20, "maximum rotations to show (0 for all)")

	var exportLimit int
	export := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write rotation history into a markdown note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.ExportHistory(context.Background(), args[0], exportLimit)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d rotation(s) to %s\n", out.Rotations, out.Path)
				return nil
			})
		},
	}
	export.Flags().IntVar(&exportLimit, "limit", 0, "maximum rotations to export (0 for all)")

	history.AddCommand(list, export)
	return history
}

func newPluginCmd(homePath *string) *cobra.Command {
	plugin := &cobra.Command{Use: "plugin", Short: "Hook plugin operations"}
	plugin.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plugin manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
				plugins, err := app.PluginCLI.List(context.Background())
				if err != nil {
					return err
				}
				if len(plugins) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins configured")
					return nil
				}
				for _, p := range plugins {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t events=%s timeout=%dms binary=%s\n",
						p.Name, p.Version, p.Enabled, strings.Join(p.Events, ","), p.TimeoutMS, p.Binary)
				}
				return nil
			})
		},
	})

	plugin.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate plugin checksums and handshake",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
				results, err := app.PluginCLI.Doctor(context.Background())
				if results == nil && err != nil {
					return err
				}
				if len(results) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins configured")
					return nil
				}
				for _, r := range results {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s manifest=%t binary=%t checksum=%t handshake=%t", r.Name, r.ManifestValid, r.BinaryReachable, r.ChecksumValid, r.HandshakeOK)
					if r.Reported != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), " reported=%q", r.Reported)
					}
					if r.Error != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", r.Error)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				return err
			})
		},
	})

	plugin.AddCommand(&cobra.Command{
		Use:   "ping [message]",
		Short: "Deliver a test notification to every notification hook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var message string
			if len(args) == 1 {
				message = args[0]
			}
			return withApp(*homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
				results, err := app.PluginCLI.Ping(context.Background(), message)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no enabled plugin handles notifications")
					return nil
				}
				for _, r := range results {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s accepted=%t took=%s", r.Plugin, r.Accepted, r.Duration.Round(time.Millisecond))
					if r.Detail != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), " detail=%q", r.Detail)
					}
					if r.Error != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", r.Error)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	})
	return plugin
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
			return nil
		},
	}
}

func statusCommand(homePath string, w io.Writer, fn func(context.Context, *bootstrap.App) (sessiondto.StatusOutput, error)) error {
	return withApp(homePath, bootstrap.Options{}, func(app *bootstrap.App) error {
		status, err := fn(context.Background(), app)
		if err != nil {
			return err
		}
		printStatus(w, status)
		return nil
	})
}

func printStatus(w io.Writer, s sessiondto.StatusOutput) {
	state := "idle"
	if s.Active {
		state = "running"
	}
	_, _ = fmt.Fprintf(w, "state=%s interval=%s elapsed=%s remaining=%s sound=%s notification=%s\n",
		state, s.Interval, s.Elapsed, s.Remaining, onOff(s.SoundEnabled), onOff(s.NotificationEnabled))
	printParticipants(w, s)
}

func printParticipants(w io.Writer, s sessiondto.StatusOutput) {
	if len(s.Participants) == 0 {
		_, _ = fmt.Fprintln(w, "no participants")
		return
	}
	for i, p := range s.Participants {
		line := strconv.Itoa(i+1) + ". " + p.Username
		if p.Role != "" {
			line += " (" + p.Role + ")"
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

func parseOnOff(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", v)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
