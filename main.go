package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"midi-lamps/config"
	"midi-lamps/control"
	"midi-lamps/debug"
	"midi-lamps/link"
	"midi-lamps/midi"
	"midi-lamps/queue"
	"midi-lamps/theme"
	"midi-lamps/tui"
)

var (
	configPath string
	host       string
	prefix     string
	verbose    bool
	logFile    string
	withTUI    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "midi-lamps",
	Short: "Drive smart lamps from a MIDI keyboard",
	Long: `midi-lamps listens to a MIDI keyboard and forwards lamp commands to the
lamp service over a websocket.

Bank 0 programs select what the keys do:
  63  color of the selected lamps, by pitch class
  64  color temperature, by key position
  65  toggle the selected lamps
  66  select or deselect the lamp of a pitch class

Examples:
  midi-lamps run
  midi-lamps run --tui
  midi-lamps ports --prefix CASIO`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	RunE:              runBridge,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge until interrupted",
	RunE:  runBridge,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI inputs and show which one would be used",
	RunE:  runPorts,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/midi-lamps/config.json)")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "Lamp service host, overrides the config file")
	rootCmd.PersistentFlags().StringVarP(&prefix, "prefix", "p", "", "MIDI input name prefix, overrides the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")

	runCmd.Flags().BoolVar(&withTUI, "tui", false, "Show the status monitor instead of log lines")
	rootCmd.Flags().BoolVar(&withTUI, "tui", false, "Show the status monitor instead of log lines")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(portsCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	debug.SetVerbose(verbose)

	path := logFile
	if withTUI {
		// the monitor owns the terminal
		debug.SetConsole(io.Discard)
		if path == "" {
			path = debug.DefaultPath()
		}
	}
	if path != "" {
		if err := debug.Enable(path); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("host") {
		cfg.Host = host
	}
	if cmd.Flags().Changed("prefix") {
		cfg.DevicePrefix = prefix
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runBridge(cmd *cobra.Command, args []string) error {
	defer debug.Disable()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// no MIDI driver means nothing can ever be bridged
	backend, err := midi.NewDriverBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var observer control.Observer
	var snapshots <-chan control.Snapshot
	if withTUI {
		observer, snapshots = tui.NewSnapshotFeed(16)
	}

	q := queue.New(cfg.QueueSize)
	translator := control.NewTranslator(cfg.LampMap(), observer)
	watcher := midi.NewWatcher(midi.WatcherConfig{
		Prefix:       cfg.DevicePrefix,
		PollInterval: time.Duration(cfg.PollInterval),
	}, backend, translator, q)
	supervisor := link.NewSupervisor(link.Config{
		URL:          cfg.URL(),
		RetryDelay:   time.Duration(cfg.RetryDelay),
		WriteTimeout: time.Duration(cfg.WriteTimeout),
	}, q, link.WebsocketDialer(time.Duration(cfg.WriteTimeout)))
	heartbeat := link.NewHeartbeat(q, time.Duration(cfg.HeartbeatInterval))

	debug.Log("main", "Bridging %s* to %s", cfg.DevicePrefix, cfg.URL())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Run(ctx) })
	g.Go(func() error { return supervisor.Run(ctx) })
	g.Go(func() error { return heartbeat.Run(ctx) })

	if withTUI {
		m := tui.NewModel(theme.New(), cfg.LampMap(), q, supervisor, cfg.URL(), tui.Sources{
			Devices:   watcher.Events(),
			Conns:     supervisor.Events(),
			Snapshots: snapshots,
		})
		p := tea.NewProgram(m, tea.WithAltScreen())
		go func() {
			<-ctx.Done()
			p.Quit()
		}()
		if _, err := p.Run(); err != nil {
			stop()
			return errors.Join(err, g.Wait())
		}
		// quitting the monitor stops the bridge
		stop()
	}

	if err := g.Wait(); err != nil {
		return err
	}
	debug.Log("main", "Stopped after %d frames, %d commands dropped", supervisor.Sent(), q.Dropped())
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	backend, err := midi.NewDriverBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	ports, err := backend.Ports()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(ports) == 0 {
		fmt.Fprintln(out, "No MIDI input ports")
		return nil
	}

	picked, found := midi.Match(ports, cfg.DevicePrefix)
	for _, p := range ports {
		mark := " "
		if found && p == picked {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %s\n", mark, p)
	}
	if !found {
		fmt.Fprintf(out, "\nNo input starts with %q\n", cfg.DevicePrefix)
	}
	return nil
}
