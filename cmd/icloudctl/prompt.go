package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// terminalPrompt reads secrets from the controlling terminal. Passwords are
// read with echo disabled; the second-factor code is plain line input since
// it is single-use.
type terminalPrompt struct{}

func (terminalPrompt) Password(accountID string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s: ", accountID)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty password")
	}
	return string(raw), nil
}

func (terminalPrompt) SecurityCode() (string, error) {
	fmt.Fprint(os.Stderr, "A verification code was sent to your trusted devices.\nCode: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read verification code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("empty verification code")
	}
	return code, nil
}
