package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ccpace/internal/applog"
	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/daemon"
	"github.com/theirongolddev/ccpace/internal/notify"
	"github.com/theirongolddev/ccpace/internal/store"
	"github.com/theirongolddev/ccpace/internal/usage"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonEventsBuffer int
	flagDaemonLogToFile    bool
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Poll usage in the background and serve it over HTTP/SSE",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", "", "PID file path (default in the data directory)")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonLogToFile, "log-to-file", false, "Write logs to the daily log files instead of stderr")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func daemonPIDFile() daemon.PIDFile {
	path := flagDaemonPIDFile
	if path == "" {
		path = filepath.Join(config.DataDir(appCfg), "ccpaced.pid")
	}
	return daemon.PIDFile{Path: path}
}

func daemonAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return appCfg.Daemon.Addr
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagDaemonDetach {
		return startDaemonDetached()
	}

	return runDaemonForeground()
}

func startDaemonDetached() error {
	pf := daemonPIDFile()
	if err := pf.Claim(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := append(filterDetachArg(os.Args[1:]), "--child")

	// The child logs through applog; its stdio goes to the null device.
	cmd := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", pf.Path)
	fmt.Printf("  API: http://%s/v1/status\n", daemonAddr())
	fmt.Printf("  Logs: %s\n", config.LogDir(appCfg))
	return nil
}

func runDaemonForeground() error {
	logDir := ""
	if flagDaemonChild || flagDaemonLogToFile {
		logDir = config.LogDir(appCfg)
	}
	logger, logCloser, err := applog.Init(applog.InitConfig{
		LogDir:   logDir,
		LogLevel: appCfg.Log.Level,
		Writer:   os.Stderr,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	pf := daemonPIDFile()
	if err := pf.Claim(); err != nil {
		return err
	}
	addr := daemonAddr()
	if err := pf.Write(daemon.RuntimeState{
		PID:       os.Getpid(),
		Addr:      addr,
		StartedAt: time.Now(),
		Source:    appCfg.Usage.Source,
		LogDir:    logDir,
	}); err != nil {
		return err
	}
	defer pf.Remove()

	src, err := newUsageSource(appCfg)
	if err != nil {
		return friendlyError(err)
	}

	db, err := store.Open(config.DBPath(appCfg))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	interval := flagDaemonInterval
	if interval == 0 {
		interval = appCfg.DaemonInterval()
	}
	buffer := flagDaemonEventsBuffer
	if buffer == 0 {
		buffer = appCfg.Daemon.EventsBuffer
	}

	svc := daemon.New(daemon.Config{
		Source:       src,
		Store:        db,
		Notifier:     notify.New(appCfg.Daemon.Notify, logger),
		SourceName:   appCfg.Usage.Source,
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: buffer,
		Logger:       logger,
	})

	if !flagDaemonChild {
		fmt.Printf("  ccpace daemon listening on http://%s\n", addr)
		fmt.Printf("  Polling %s every %s\n", appCfg.Usage.Source, interval)
		fmt.Printf("  Stop with: ccpace daemon stop --pid-file %s\n", pf.Path)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon stopped", "err", err)
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	pf := daemonPIDFile()
	pid, err := pf.Read()
	if err != nil {
		fmt.Printf("  Daemon: not running (pid file not found)\n")
		return nil
	}
	if pf.Running() == 0 {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := daemonAddr()
	if st, err := pf.State(); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		fmt.Printf("  Last poll: pending\n")
	} else {
		fmt.Printf("  Last poll: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Poll count: %d (every %ds from %s)\n", st.PollCount, st.PollIntervalSec, st.Source)
	fmt.Printf("  Menu title: %s\n", st.MenuTitle)
	printWindow("Session", st.Current.Session)
	printWindow("All models", st.Current.AllModels)
	printWindow("Sonnet", st.Current.Sonnet)
	fmt.Printf("  Events: %d buffered, %d subscribers\n", st.EventCount, st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func printWindow(label string, w daemon.Window) {
	line := fmt.Sprintf("  %-11s %s", label+":", usage.FormatPercent(w.UsedPercent))
	if w.Pacing != "" {
		line += " · " + w.Pacing
	}
	if w.Reset != "" {
		line += " · resets " + w.Reset
	}
	fmt.Println(line)
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pid, err := daemonPIDFile().Stop(8 * time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("  Stopped daemon (pid %d)\n", pid)
	return nil
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}
