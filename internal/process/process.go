package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// KilledExitCode is reported when a process had to be force-killed (128 + SIGKILL).
const KilledExitCode = 137

// OutputHandler receives output lines from the subprocess.
// source is "stdout" or "stderr".
type OutputHandler interface {
	HandleLine(source, line string)
}

// OutputHandlerFunc adapts a function to OutputHandler.
type OutputHandlerFunc func(source, line string)

// HandleLine calls f.
func (f OutputHandlerFunc) HandleLine(source, line string) { f(source, line) }

// LogParser maps an output line to a log level and message.
// Returning an empty level drops the line from the log.
type LogParser func(source, line string) (level, msg string)

// Process manages the lifecycle of one subprocess.
type Process struct {
	id              string
	command         string
	logger          *slog.Logger
	processLogger   *slog.Logger // logger for process output (nil = use logger)
	logParser       LogParser    // nil = every line at info
	outputHandler   OutputHandler
	gracefulTimeout time.Duration // timeout for graceful shutdown before force kill
	killTimeout     time.Duration // timeout after Kill() before giving up

	mu      sync.Mutex
	cmd     *exec.Cmd
	running *runningProcess
}

// runningProcess holds channels for monitoring a running subprocess.
type runningProcess struct {
	processDone <-chan error
	outputDone  chan struct{} // receives twice, once per output stream
}

// NewProcess creates a new process.
func NewProcess(id, command string, logger *slog.Logger) *Process {
	if logger == nil {
		logger = slog.Default()
	}
	return &Process{
		id:              id,
		command:         command,
		logger:          logger,
		gracefulTimeout: 5 * time.Second,
		killTimeout:     5 * time.Second,
	}
}

// Command returns the command line.
func (p *Process) Command() string {
	return p.command
}

// SetOutputHandler registers the receiver for output lines.
func (p *Process) SetOutputHandler(h OutputHandler) {
	p.outputHandler = h
}

// SetLogParser sets the logger and parser used for process output.
func (p *Process) SetLogParser(logger *slog.Logger, parser LogParser) {
	p.processLogger = logger
	p.logParser = parser
}

// SetTimeouts overrides the graceful stop and kill timeouts.
func (p *Process) SetTimeouts(graceful, kill time.Duration) {
	p.gracefulTimeout = graceful
	p.killTimeout = kill
}

// PID returns the process id, or 0 before Start.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Start parses the command and starts the subprocess.
func (p *Process) Start() error {
	args, err := parseCommand(p.command)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("empty command")
	}

	cmd := exec.Command(args[0], args[1:]...)
	// Own process group so a terminal Ctrl-C reaches only the supervisor
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", args[0], err)
	}
	p.logger.Info("Process started", "id", p.id, "pid", cmd.Process.Pid, "command", p.command)

	outputDone := make(chan struct{}, 2)
	go func() {
		p.streamOutput(stdout, "stdout")
		outputDone <- struct{}{}
	}()
	go func() {
		p.streamOutput(stderr, "stderr")
		outputDone <- struct{}{}
	}()

	processDone := make(chan error, 1)
	go func() {
		processDone <- cmd.Wait()
	}()

	p.mu.Lock()
	p.cmd = cmd
	p.running = &runningProcess{processDone: processDone, outputDone: outputDone}
	p.mu.Unlock()
	return nil
}

// Wait blocks until the process exits or ctx ends. On cancellation the
// process gets SIGINT and is killed after the graceful timeout.
// Returns the exit code.
func (p *Process) Wait(ctx context.Context) int {
	p.mu.Lock()
	rp := p.running
	p.mu.Unlock()
	if rp == nil {
		return 1
	}

	var exitCode int
	select {
	case <-ctx.Done():
		p.logger.Info("Stopping process", "id", p.id)
		p.sendStopSignal()
		exitCode = p.waitForExit(rp.processDone)
	case processErr := <-rp.processDone:
		exitCode = exitCodeFromError(processErr)
		if processErr != nil && exitCode == 1 {
			p.logger.Error("Process exited with error", "id", p.id, "error", processErr)
		}
		p.logger.Info("Process exited", "id", p.id, "exit_code", exitCode)
	}

	<-rp.outputDone
	<-rp.outputDone
	return exitCode
}

// Run starts the process and waits for it. A start failure returns 1.
func (p *Process) Run(ctx context.Context) int {
	if err := p.Start(); err != nil {
		p.logger.Error("Failed to start process", "id", p.id, "command", p.command, "error", err)
		return 1
	}
	return p.Wait(ctx)
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		// Terminated by a signal
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
	}
	return 1
}

// sendStopSignal sends SIGINT to the subprocess without waiting.
func (p *Process) sendStopSignal() {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(syscall.SIGINT); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("Failed to send SIGINT", "id", p.id, "error", err)
	}
}

// waitForExit waits for the process to exit, force-killing it after the
// graceful timeout.
func (p *Process) waitForExit(processDone <-chan error) int {
	select {
	case err := <-processDone:
		return exitCodeFromError(err)
	case <-time.After(p.gracefulTimeout):
	}

	p.logger.Warn("Graceful shutdown timeout, forcing kill", "id", p.id, "timeout", p.gracefulTimeout)
	p.mu.Lock()
	proc := p.cmd.Process
	p.mu.Unlock()
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Error("Failed to kill process", "id", p.id, "error", err)
	}

	select {
	case <-processDone:
	case <-time.After(p.killTimeout):
		p.logger.Error("Process did not exit after kill signal", "id", p.id)
	}
	return KilledExitCode
}

// streamOutput forwards output lines to the handler and the log.
func (p *Process) streamOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)

	logger := p.processLogger
	if logger == nil {
		logger = p.logger
	}

	for scanner.Scan() {
		line := scanner.Text()

		if p.outputHandler != nil {
			p.outputHandler.HandleLine(source, line)
		}

		level, msg := "info", line
		if p.logParser != nil {
			level, msg = p.logParser(source, line)
		}

		switch level {
		case "":
		case "fatal", "error":
			logger.Error(msg, "source", source)
		case "warn", "warning":
			logger.Warn(msg, "source", source)
		case "debug", "trace":
			logger.Debug(msg, "source", source)
		default:
			logger.Info(msg, "source", source)
		}
	}

	if err := scanner.Err(); err != nil {
		p.logger.Warn("Error reading output", "id", p.id, "source", source, "error", err)
	}
}

// parseCommand parses a command string into arguments
// Handles quoted strings and basic escaping.
func parseCommand(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)
	// An explicit "" still yields an argument
	pending := false

	runes := []rune(strings.TrimSpace(command))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoteChar = r
				pending = true
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case (r == ' ' || r == '\t') && !inQuote:
			if current.Len() > 0 || pending {
				args = append(args, current.String())
				current.Reset()
				pending = false
			}
		case r == '\\' && i+1 < len(runes) && quoteChar != '\'':
			i++
			current.WriteRune(runes[i])
		default:
			current.WriteRune(r)
		}
	}

	if inQuote {
		return nil, fmt.Errorf("unclosed quote in command")
	}
	if current.Len() > 0 || pending {
		args = append(args, current.String())
	}
	return args, nil
}
