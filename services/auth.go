package services

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal
)

// ResolveToken returns the configured token, or prompts for one on an
// interactive terminal.
func ResolveToken(configured string, prompt io.Writer) (string, error) {
	if token := strings.TrimSpace(configured); token != "" {
		return token, nil
	}

	fd := int(os.Stdin.Fd())
	if !isTerminalFunc(fd) {
		return "", appErrors.Clone(appErrors.ErrInvalidToken, "no API token given; set CANVAS_PAT")
	}

	fmt.Fprint(prompt, "Paste your canvas API token and press enter: ")
	raw, err := readPasswordFunc(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", appErrors.CloneWrap(appErrors.ErrInvalidToken, "could not read the API token", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", appErrors.Clone(appErrors.ErrInvalidToken, "no API token given")
	}
	return token, nil
}

func (c *CanvasClient) authHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.Config.Token,
		"Accept":        "application/json",
	}
}
