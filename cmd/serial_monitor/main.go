// Serial Monitor follows a running serial_terminal through its mirror
// and reads back sessions the terminal recorded.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/serial_terminal/pkg/config"
	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"github.com/NotCoffee418/serial_terminal/pkg/mirror"
	"github.com/NotCoffee418/serial_terminal/pkg/pathing"
	"github.com/NotCoffee418/serial_terminal/pkg/sessiondb"
	"github.com/NotCoffee418/serial_terminal/pkg/types"
	"go.uber.org/zap"
)

const (
	exitFatal = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	flags := flag.NewFlagSet("serial_monitor", flag.ContinueOnError)
	configPath := flags.String("config", "", "config file (default "+pathing.GetMonitorConfigPath()+")")
	terminalConfigPath := flags.String("terminal-config", "", "serial_terminal config holding the session db location")
	history := flags.Int("history", 0, "list the last N recorded sessions and exit")
	transcript := flags.Int64("transcript", 0, "print the device output of one recorded session and exit")
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "Usage: serial_monitor [-config FILE] [-history N] [-transcript ID] [host:port]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}
	if flags.NArg() > 1 || *history < 0 {
		flags.Usage()
		return exitUsage
	}

	// Reconnect attempts are worth seeing here
	logConfig := config.DefaultTerminalConfig().Log
	logConfig.Level = "info"
	if err := logger.Init(logConfig, pathing.GetLogDir()); err != nil {
		fmt.Fprintf(os.Stderr, "serial_monitor: %v\n", err)
		return exitFatal
	}
	defer logger.Sync()

	if *history > 0 || *transcript > 0 {
		return readRecords(*terminalConfigPath, *history, *transcript, out)
	}

	// Load config
	if err := config.LoadMonitorConfig(*configPath); err != nil {
		if config.ActiveMonitorConfig == nil {
			fmt.Fprintf(os.Stderr, "serial_monitor: failed to load config: %v\n", err)
			return exitFatal
		}
		logger.Get().Warn("Running with default config", zap.Error(err))
	}
	host := config.ActiveMonitorConfig.TerminalHost
	if flags.NArg() == 1 {
		host = flags.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Subscribe to websocket with revive
	err := mirror.StartListener(ctx, host, config.ActiveMonitorConfig.TLSEnabled, func(chunk *types.Chunk) {
		handleChunk(out, chunk)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "serial_monitor: %v\n", err)
		return exitFatal
	}
	return 0
}

// Only device output is shown, keystrokes reappear in the device echo anyway.
func handleChunk(out io.Writer, chunk *types.Chunk) {
	if chunk.Direction != types.DirectionRx {
		return
	}
	io.WriteString(out, chunk.Text)
}

func readRecords(terminalConfigPath string, history int, transcript int64, out io.Writer) int {
	if err := config.LoadTerminalConfig(terminalConfigPath); config.ActiveTerminalConfig == nil {
		fmt.Fprintf(os.Stderr, "serial_monitor: failed to load terminal config: %v\n", err)
		return exitFatal
	}
	dbPath := config.ActiveTerminalConfig.SessionDbPath()
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "serial_monitor: no session log at %s\n", dbPath)
		return exitFatal
	}

	db, err := sessiondb.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "serial_monitor: %v\n", err)
		return exitFatal
	}
	defer db.Close()

	if history > 0 {
		err = printHistory(db, history, out)
	} else {
		err = printTranscript(db, transcript, out)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "serial_monitor: %v\n", err)
		return exitFatal
	}
	return 0
}

func printHistory(db *sessiondb.SessionDb, limit int, out io.Writer) error {
	sessions, err := db.ListSessions(limit)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		fmt.Fprintln(out, formatSession(s))
	}
	return nil
}

func formatSession(s sessiondb.SessionSummary) string {
	started := time.UnixMilli(s.StartedAt)
	ended := "running"
	if s.EndedAt != 0 {
		ended = fmt.Sprintf("%s (%s)", time.UnixMilli(s.EndedAt).Sub(started).Round(time.Second), s.EndReason)
	}
	return fmt.Sprintf("%5d  %s  %-16s %-8s %7d baud  tx %d  rx %d  %s",
		s.Id,
		started.Format("2006-01-02 15:04:05"),
		s.Port,
		s.Driver,
		s.Baudrate,
		s.BytesSent,
		s.BytesReceived,
		ended)
}

func printTranscript(db *sessiondb.SessionDb, sessionId int64, out io.Writer) error {
	entries, err := db.Transcript(sessionId)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("session %d has no recorded data", sessionId)
	}

	corrupt := 0
	for _, entry := range entries {
		if !entry.Valid {
			corrupt++
		}
		if entry.Direction == types.DirectionRx {
			out.Write(entry.Data)
		}
	}
	if corrupt > 0 {
		logger.Get().Warn("Transcript contains corrupted entries", zap.Int64("session", sessionId), zap.Int("entries", corrupt))
	}
	return nil
}
