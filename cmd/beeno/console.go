package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

type lineResult struct {
	line string
	err  error
}

// console reads one line per request so stdin is left alone while a
// runtime child that inherits it is running.
type console struct {
	out     io.Writer
	req     chan struct{}
	resp    chan lineResult
	pending bool
	eof     bool
}

func newConsole(in io.Reader, out io.Writer) *console {
	c := &console{
		out:  out,
		req:  make(chan struct{}, 1),
		resp: make(chan lineResult, 1),
	}
	r := bufio.NewReader(in)
	go func() {
		for range c.req {
			line, err := r.ReadString('\n')
			c.resp <- lineResult{line: line, err: err}
		}
	}()
	return c
}

// readLine prints prompt and returns the next trimmed line. It returns false
// at end of input or when ctx is done.
func (c *console) readLine(ctx context.Context, prompt string) (string, bool) {
	if c.eof {
		return "", false
	}
	fmt.Fprint(c.out, prompt)
	if !c.pending {
		c.req <- struct{}{}
		c.pending = true
	}
	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", false
	case r := <-c.resp:
		c.pending = false
		if r.err != nil {
			c.eof = true
			if r.line == "" {
				fmt.Fprintln(c.out)
				return "", false
			}
		}
		return strings.TrimSpace(r.line), true
	}
}

// confirm asks a yes/no question; anything but y or yes is no.
func (c *console) confirm(ctx context.Context, question string) bool {
	answer, ok := c.readLine(ctx, question+" [y/N]: ")
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

// splitCommand splits "/name rest" or ":name rest". ok is false for plain input.
func splitCommand(line string) (name, arg string, ok bool) {
	if !strings.HasPrefix(line, "/") && !strings.HasPrefix(line, ":") {
		return "", "", false
	}
	body := line[1:]
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		return body[:i], strings.TrimSpace(body[i+1:]), true
	}
	return body, "", true
}
