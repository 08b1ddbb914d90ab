package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// secretPrompt reads secrets from the terminal without echo. When stdin is
// not a terminal, one line is read per prompt so passphrases can be piped.
func secretPrompt(stdin io.Reader, stderr io.Writer) func(string) (string, error) {
	var lines *bufio.Reader
	return func(label string) (string, error) {
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(stderr, label)
			secret, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(stderr) // newline after hidden input
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(secret)), nil
		}

		if lines == nil {
			lines = bufio.NewReader(stdin)
		}
		line, err := lines.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
		}
		return strings.TrimSpace(line), nil
	}
}

// passphrase prompts for a non-empty secret.
func (c *cli) passphrase(label string) (string, error) {
	p, err := c.prompt(label)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("empty passphrase")
	}
	return p, nil
}
