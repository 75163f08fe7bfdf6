// Serial Terminal relays keystrokes to a serial device and prints what it sends back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/NotCoffee418/serial_terminal/pkg/config"
	"github.com/NotCoffee418/serial_terminal/pkg/keyboard"
	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"github.com/NotCoffee418/serial_terminal/pkg/mirror"
	"github.com/NotCoffee418/serial_terminal/pkg/pathing"
	"github.com/NotCoffee418/serial_terminal/pkg/serialport"
	"github.com/NotCoffee418/serial_terminal/pkg/sessiondb"
	"github.com/NotCoffee418/serial_terminal/pkg/terminal"
	"go.uber.org/zap"
)

const (
	exitFatal = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("serial_terminal", flag.ContinueOnError)
	configPath := flags.String("config", "", "config file (default "+pathing.GetTerminalConfigPath()+")")
	listPorts := flags.Bool("list", false, "print available serial ports and exit")
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "Usage: serial_terminal [-config FILE] [-list] <port>")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	if *listPorts {
		return printPorts()
	}

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "serial_terminal: exactly one serial port is required")
		flags.Usage()
		return exitUsage
	}
	portName := flags.Arg(0)

	// Load config
	if err := pathing.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "serial_terminal: %v\n", err)
	}
	loadErr := config.LoadTerminalConfig(*configPath)
	if config.ActiveTerminalConfig == nil {
		fmt.Fprintf(os.Stderr, "serial_terminal: failed to load config: %v\n", loadErr)
		return exitFatal
	}
	cfg := config.ActiveTerminalConfig

	if err := logger.Init(cfg.Log, pathing.GetLogDir()); err != nil {
		fmt.Fprintf(os.Stderr, "serial_terminal: %v\n", err)
		return exitFatal
	}
	defer logger.Sync()
	if loadErr != nil {
		logger.Get().Warn("Running with default config", zap.Error(loadErr))
	}

	// Connect before anything runs in the background
	conn, err := serialport.Open(serialport.Options{
		PortName:    portName,
		Driver:      serialport.Driver(cfg.Serial.Driver),
		BaudRate:    cfg.Serial.Baudrate,
		DataBits:    cfg.Serial.DataBits,
		StopBits:    cfg.Serial.StopBits,
		Parity:      serialport.Parity(cfg.Serial.Parity),
		ReadTimeout: cfg.ReadTimeout(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "serial_terminal: %v\n", err)
		return exitFatal
	}

	kb, err := keyboard.Open()
	if err != nil {
		conn.Close()
		fmt.Fprintf(os.Stderr, "serial_terminal: %v\n", err)
		return exitFatal
	}
	defer kb.Restore()

	session := terminal.NewSession(conn, kb, os.Stdout, terminal.OptionsFromConfig(cfg))

	// Optional live view for other machines
	mirrorCtx, stopMirror := context.WithCancel(context.Background())
	defer stopMirror()
	if cfg.Mirror.Enabled {
		hub := mirror.NewHub(portName)
		if err := hub.Start(mirrorCtx, cfg.MirrorListener()); err != nil {
			logger.Get().Error("Mirror disabled", zap.Error(err))
		} else {
			session.OnReceive(hub.Broadcast)
			session.OnSend(hub.Broadcast)
		}
	}

	// Optional session record
	record := openSessionLog(cfg, conn)
	defer record.close()
	if record.db != nil {
		session.OnReceive(record.db.Recorder(record.id))
		session.OnSend(record.db.Recorder(record.id))
	}

	// Anything below ends the process without returning through run
	abort := func(reason string, err error) {
		kb.Restore()
		conn.Close()
		record.end(reason)
		record.close()
		logger.Get().Error("Session aborted", zap.String("reason", reason), zap.Error(err))
		fmt.Fprintf(os.Stderr, "\r\nserial_terminal: %v\r\n", err)
		logger.Sync()
		os.Exit(exitFatal)
	}
	session.OnReaderError(func(err error) {
		abort("reader error", err)
	})

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		sig := <-signals
		abort("signal", fmt.Errorf("received %s", sig))
	}()

	fmt.Fprintf(os.Stderr, "Connected to %s, press %s to exit\r\n", portName, cfg.Terminal.Sentinel)
	result, err := session.Run(context.Background())
	if result != nil {
		record.end(string(result.StopReason))
	}
	if err != nil {
		kb.Restore()
		fmt.Fprintf(os.Stderr, "serial_terminal: %v\n", err)
		return exitFatal
	}
	return 0
}

func printPorts() int {
	ports, err := serialport.ListPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "serial_terminal: failed to list ports: %v\n", err)
		return exitFatal
	}
	if len(ports) == 0 {
		fmt.Fprintln(os.Stderr, "No serial ports found")
		return 0
	}
	for _, port := range ports {
		fmt.Println(port)
	}
	return 0
}

type sessionLog struct {
	db      *sessiondb.SessionDb
	id      int64
	endOnce sync.Once
}

// A broken session log never stops the terminal, it only logs.
func openSessionLog(cfg *config.TerminalConfig, conn *serialport.Connection) *sessionLog {
	record := &sessionLog{}
	if !cfg.SessionLog.Enabled {
		return record
	}

	db, err := sessiondb.Open(cfg.SessionDbPath())
	if err != nil {
		logger.Get().Error("Session log disabled", zap.Error(err))
		return record
	}
	id, err := db.StartSession(conn.Name(), string(conn.Driver()), cfg.Serial.Baudrate)
	if err != nil {
		logger.Get().Error("Session log disabled", zap.Error(err))
		db.Close()
		return record
	}

	logger.Get().Info("Recording session", zap.Int64("session", id), zap.String("db", cfg.SessionDbPath()))
	record.db = db
	record.id = id
	return record
}

func (r *sessionLog) end(reason string) {
	if r.db == nil {
		return
	}
	r.endOnce.Do(func() {
		if err := r.db.EndSession(r.id, reason); err != nil {
			logger.Get().Warn("Failed to close session record", zap.Error(err))
		}
	})
}

func (r *sessionLog) close() {
	if r.db == nil {
		return
	}
	r.db.Close()
}
