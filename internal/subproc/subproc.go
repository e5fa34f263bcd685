// Package subproc runs the external commands actions depend on. Commands get
// their own process group so cancellation kills the whole tree, and output is
// captured line by line, optionally mirrored into the structured log as it
// arrives.
package subproc

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/verigate/verigate/internal/ctxlog"
)

// Spec describes one command invocation.
type Spec struct {
	Name string
	Args []string
	Dir  string
	Env  []string

	// Stream mirrors each output line into the context logger at Info level.
	Stream bool
}

// Result holds a finished command's captured output.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes the command and waits for it. A non-zero exit is returned as
// an error alongside the captured output.
func Run(ctx context.Context, spec Spec) (Result, error) {
	logger := ctxlog.From(ctx)
	logger.Debug("Running command.", "name", spec.Name, "args", spec.Args, "dir", spec.Dir)

	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	// Own process group, so cancellation can kill the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("piping stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("piping stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("starting %s: %w", spec.Name, err)
	}

	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go collectLines(&wg, stdout, &outBuf, spec.Stream, logger.Info, "stdout", spec.Name)
	go collectLines(&wg, stderr, &errBuf, spec.Stream, logger.Warn, "stderr", spec.Name)

	done := make(chan error, 1)
	go func() {
		wg.Wait()
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return Result{Stdout: outBuf.String(), Stderr: errBuf.String(), ExitCode: -1},
			fmt.Errorf("%s canceled: %w", spec.Name, ctx.Err())
	case waitErr = <-done:
	}

	res := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}
	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return res, fmt.Errorf("running %s: %w", spec.Name, waitErr)
		}
		res.ExitCode = exitErr.ExitCode()
		return res, fmt.Errorf("%s exited with code %d%s", spec.Name, res.ExitCode, stderrTail(res.Stderr))
	}
	return res, nil
}

// collectLines drains one pipe into a buffer, optionally mirroring each line
// into the log.
func collectLines(wg *sync.WaitGroup, r io.Reader, buf *bytes.Buffer, stream bool, log func(string, ...any), name, command string) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if stream {
			log(line, "stream", name, "command", command)
		}
	}
}

// stderrTail renders the last few stderr lines for error messages.
func stderrTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return ": " + strings.Join(lines, "; ")
}
