package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	promptIn    io.Reader = os.Stdin
	promptOut   io.Writer = os.Stderr
	interactive           = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// confirm asks a yes/no question. Without a terminal the default answer is
// taken without asking.
func confirm(question string, def bool) bool {
	if !interactive() {
		return def
	}
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	fmt.Fprintf(promptOut, "%s %s: ", question, hint)

	line, err := bufio.NewReader(promptIn).ReadString('\n')
	if err != nil && line == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	return def
}
