package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// prompter reads answers from a command's input. One prompter is used per
// command so buffered input is not lost between questions.
type prompter struct {
	cmd    *cobra.Command
	in     io.Reader
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{cmd: cmd, in: in, reader: bufio.NewReader(in)}
}

// Line asks for a value, returning fallback when the answer is empty.
func (p *prompter) Line(label, fallback string) string {
	if fallback != "" {
		fmt.Fprintf(p.cmd.ErrOrStderr(), "%s [%s]: ", label, fallback)
	} else {
		fmt.Fprintf(p.cmd.ErrOrStderr(), "%s: ", label)
	}
	answer := readLine(p.reader)
	if answer == "" {
		return fallback
	}
	return answer
}

// Password asks for a secret without echo when input is a terminal.
func (p *prompter) Password(label string) string {
	fmt.Fprintf(p.cmd.ErrOrStderr(), "%s: ", label)
	defer fmt.Fprintln(p.cmd.ErrOrStderr())
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(p.reader)
}

// AccountPassword returns the password from the environment or asks for it.
func (p *prompter) AccountPassword(username string) string {
	if password := os.Getenv(EnvPassword); password != "" {
		return password
	}
	return p.Password("Password for " + username)
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// ensureSession logs in with the configured account unless a session is
// already held. Without a configured account commands run anonymously.
func ensureSession(cmd *cobra.Command) error {
	if sessionManager.IsAuthenticated() {
		return nil
	}
	username := resolveUsername()
	if username == "" {
		logger.Debug("no username configured, continuing without a session")
		return nil
	}
	password := newPrompter(cmd).AccountPassword(username)
	_, err := sessionManager.Login(cmd.Context(), username, password)
	return err
}

// requireSession is ensureSession for commands that make no sense
// anonymously.
func requireSession(cmd *cobra.Command) error {
	if err := ensureSession(cmd); err != nil {
		return err
	}
	if !sessionManager.IsAuthenticated() {
		return fmt.Errorf("%w: pass --username or run 'insightgen config set auth.username <name>'",
			domain.ErrNotAuthenticated)
	}
	return nil
}
