// Package tool runs the external converters the pipeline delegates to
// (sass, autoprefixer, ttf2woff, ...). A command is a template such as
// "ttf2woff {in} {out}". When the template has no {in} the input file is fed
// on stdin; when it has no {out} stdout is written to the output file.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	inPlaceholder  = "{in}"
	outPlaceholder = "{out}"
)

// ErrNotFound is returned when the command binary is not on PATH.
var ErrNotFound = errors.New("tool: command not found")

// ErrEmpty is returned for an empty command template.
var ErrEmpty = errors.New("tool: empty command")

// Command is a parsed command template.
type Command struct {
	Name string
	Args []string
}

// Parse splits a command template on whitespace.
func Parse(template string) (Command, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}
	return Command{Name: fields[0], Args: fields[1:]}, nil
}

// With returns a copy of c with extra arguments appended.
func (c Command) With(args ...string) Command {
	out := Command{Name: c.Name, Args: make([]string, 0, len(c.Args)+len(args))}
	out.Args = append(out.Args, c.Args...)
	out.Args = append(out.Args, args...)
	return out
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// expand substitutes the placeholders and reports which ones were present.
func (c Command) expand(in, out string) (args []string, hasIn, hasOut bool) {
	args = make([]string, len(c.Args))
	for i, a := range c.Args {
		if strings.Contains(a, inPlaceholder) {
			hasIn = true
			a = strings.ReplaceAll(a, inPlaceholder, in)
		}
		if strings.Contains(a, outPlaceholder) {
			hasOut = true
			a = strings.ReplaceAll(a, outPlaceholder, out)
		}
		args[i] = a
	}
	return args, hasIn, hasOut
}

// Runner executes commands. The zero value is ready to use.
type Runner struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the process environment.
	Env []string
}

// Convert runs c to turn the file in into the file out.
func (r *Runner) Convert(ctx context.Context, c Command, in, out string) error {
	args, hasIn, hasOut := c.expand(in, out)

	var stdin io.Reader
	if !hasIn {
		f, err := os.Open(in)
		if err != nil {
			return fmt.Errorf("tool: open %s: %w", in, err)
		}
		defer f.Close()
		stdin = f
	}

	if hasOut {
		_, err := r.run(ctx, c.Name, args, stdin)
		return err
	}

	data, err := r.run(ctx, c.Name, args, stdin)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("tool: write %s: %w", out, err)
	}
	return nil
}

// Pipe runs c with input on stdin and returns its stdout.
func (r *Runner) Pipe(ctx context.Context, c Command, input []byte) ([]byte, error) {
	return r.run(ctx, c.Name, c.Args, bytes.NewReader(input))
}

// Run runs c with no input and discards stdout.
func (r *Runner) Run(ctx context.Context, c Command) error {
	_, err := r.run(ctx, c.Name, c.Args, nil)
	return err
}

func (r *Runner) run(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("tool: %s: %w", name, err)
		}
		return nil, fmt.Errorf("tool: %s: %w: %s", name, err, msg)
	}
	return stdout.Bytes(), nil
}
