package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompt writes question to out and reads one line from in. An empty
// answer or closed input yields fallback.
func prompt(in *bufio.Reader, out io.Writer, question, fallback string) string {
	fmt.Fprint(out, question)
	line, _ := in.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return fallback
	}
	return line
}
