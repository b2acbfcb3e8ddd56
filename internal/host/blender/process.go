package blender

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"mediafx/internal/logging"
)

//go:embed bridge.py
var bridgeScript []byte

const (
	defaultStartupTimeout = 60 * time.Second
	quitTimeout           = 10 * time.Second
)

// Options configures Start.
type Options struct {
	// Binary is the Blender executable; "blender" when empty.
	Binary string
	// StartupTimeout bounds the wait for the bridge greeting.
	StartupTimeout time.Duration
	Logger         *slog.Logger
}

// BridgeScript returns the embedded bridge source.
func BridgeScript() []byte {
	return append([]byte(nil), bridgeScript...)
}

// Start launches Blender in the background and returns an Engine bound to
// it. The process lives until Close, independent of ctx; ctx only bounds
// startup.
func Start(ctx context.Context, opts Options) (*Engine, error) {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "blender"
	}
	timeout := opts.StartupTimeout
	if timeout <= 0 {
		timeout = defaultStartupTimeout
	}
	logger := logging.NewComponentLogger(opts.Logger, "blender")

	script, err := os.CreateTemp("", "mediafx-bridge-*.py")
	if err != nil {
		return nil, fmt.Errorf("create bridge script: %w", err)
	}
	scriptPath := script.Name()
	if _, err := script.Write(bridgeScript); err != nil {
		_ = script.Close()
		_ = os.Remove(scriptPath)
		return nil, fmt.Errorf("write bridge script: %w", err)
	}
	if err := script.Close(); err != nil {
		_ = os.Remove(scriptPath)
		return nil, fmt.Errorf("write bridge script: %w", err)
	}

	cmd := exec.Command(binary, "--background", "--factory-startup", "--python", scriptPath)
	cmd.Stderr = &lineLogger{logger: logger}
	cmd.WaitDelay = quitTimeout
	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = os.Remove(scriptPath)
		return nil, fmt.Errorf("blender stdin: %w", err)
	}
	// The read end stays with the client so Wait cannot close it while
	// replies are still buffered.
	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		_ = os.Remove(scriptPath)
		return nil, fmt.Errorf("blender stdout: %w", err)
	}
	cmd.Stdout = stdoutW
	if err := cmd.Start(); err != nil {
		_ = stdout.Close()
		_ = stdoutW.Close()
		_ = os.Remove(scriptPath)
		return nil, fmt.Errorf("start blender: %w", err)
	}
	_ = stdoutW.Close()

	proc := &process{cmd: cmd, stdin: stdin, script: scriptPath, exited: make(chan struct{})}
	go proc.wait()

	client := NewClient(stdout, stdin, opts.Logger)
	go func() {
		<-client.Done()
		_ = stdout.Close()
	}()
	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	info, err := client.WaitReady(readyCtx)
	if err != nil {
		proc.kill()
		return nil, fmt.Errorf("blender bridge did not start: %w", err)
	}
	logger.Info("blender started",
		logging.String("binary", binary),
		logging.String("version", info.Version),
		logging.Int("pid", cmd.Process.Pid),
	)

	engine := NewEngine(client, opts.Logger)
	engine.shutdown = proc.stop
	engine.abort = proc.kill
	return engine, nil
}

type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	script string

	exited  chan struct{}
	waitErr error
	once    sync.Once
}

func (p *process) wait() {
	p.waitErr = p.cmd.Wait()
	_ = os.Remove(p.script)
	close(p.exited)
}

// stop closes stdin and waits for exit, killing the process when ctx ends
// first.
func (p *process) stop(ctx context.Context) error {
	p.once.Do(func() { _ = p.stdin.Close() })
	select {
	case <-p.exited:
	case <-ctx.Done():
		p.kill()
		<-p.exited
		return fmt.Errorf("blender did not exit: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if p.waitErr != nil && !errors.As(p.waitErr, &exitErr) {
		return fmt.Errorf("wait for blender: %w", p.waitErr)
	}
	return nil
}

func (p *process) kill() {
	p.once.Do(func() { _ = p.stdin.Close() })
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// lineLogger forwards process stderr to the debug log.
type lineLogger struct {
	logger *slog.Logger
}

func (l *lineLogger) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			l.logger.Debug("blender stderr", logging.String("line", line))
		}
	}
	return len(p), nil
}
