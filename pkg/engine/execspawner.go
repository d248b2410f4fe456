package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// ExecSpawner runs command lines through the system shell. It is the
// production Spawner.
type ExecSpawner struct {
	// Shell is the interpreter for command lines. Default: /bin/sh.
	Shell string
}

// NewExecSpawner returns a Spawner backed by os/exec.
func NewExecSpawner() *ExecSpawner {
	return &ExecSpawner{Shell: "/bin/sh"}
}

// Start launches the command and wires line-buffered stream callbacks.
// OnExit fires once, after both streams are fully drained, so the last
// output line is always appended before the exit is handled.
func (s *ExecSpawner) Start(spec SpawnSpec) (Process, error) {
	if spec.Command == "" {
		return nil, fmt.Errorf("command is empty")
	}
	shell := s.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell, "-c", spec.Command)

	var stdin io.WriteCloser
	if spec.Stdin != nil {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
		stdin = pipe
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", spec.Command, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(stdout, spec.OnStdout, &wg)
	go scanLines(stderr, spec.OnStderr, &wg)

	if stdin != nil {
		lines := spec.Stdin
		go func() {
			w := bufio.NewWriter(stdin)
			for _, line := range lines {
				if _, err := w.WriteString(line); err != nil {
					break
				}
				if err := w.WriteByte('\n'); err != nil {
					break
				}
			}
			_ = w.Flush()
			_ = stdin.Close()
		}()
	}

	go func() {
		wg.Wait()
		err := cmd.Wait()

		code := 0
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else if err != nil {
			code = -1
		}
		if spec.OnExit != nil {
			spec.OnExit(code)
		}
	}()

	return &execProcess{cmd: cmd}, nil
}

func scanLines(r io.Reader, fn func(string), wg *sync.WaitGroup) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if fn != nil {
			fn(sc.Text())
		}
	}
}

type execProcess struct {
	cmd  *exec.Cmd
	once sync.Once
}

// Stop kills the process. Stream and exit callbacks may still fire while
// the kill propagates; the engine discards them via registry lookup.
func (p *execProcess) Stop() {
	p.once.Do(func() {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
	})
}
