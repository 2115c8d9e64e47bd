package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ReadSecret prompts on out and reads a token from in without echoing when
// in is a terminal. Piped input is read as a single line.
func ReadSecret(prompt string, in *os.File, out io.Writer) (string, error) {
	fmt.Fprint(out, prompt)

	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// KeySource reports where the effective secret for item comes from:
// "env", "keychain", "config" or "none".
func KeySource(cfg *Config, km *KeyringManager, item string) string {
	envVar, fileValue := "", ""
	switch item {
	case KeyringJiraTokenItem:
		envVar, fileValue = "JIRA_API_TOKEN", cfg.Jira.APIToken
	case KeyringWakaTimeKeyItem:
		envVar, fileValue = "WAKATIME_API_KEY", cfg.WakaTime.APIKey
	}
	if envVar != "" && os.Getenv(envVar) != "" {
		return "env"
	}
	if v, err := km.GetSecret(item); err == nil && v != "" {
		return "keychain"
	}
	if fileValue != "" {
		return "config"
	}
	return "none"
}
