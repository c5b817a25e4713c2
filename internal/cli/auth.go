package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/fetch"
	"github.com/myastroboard/astroboard/pkg/resources"
	"github.com/myastroboard/astroboard/pkg/session"
)

// loginResponse is the body of a successful POST /api/auth/login.
type loginResponse struct {
	Status               string `json:"status"`
	UserID               string `json:"user_id"`
	Username             string `json:"username"`
	Role                 string `json:"role"`
	UsingDefaultPassword bool   `json:"using_default_password"`
}

// loginCommand creates the "login" command.
func (c *CLI) loginCommand() *cobra.Command {
	var (
		username      string
		passwordStdin bool
		ttl           time.Duration
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the dashboard and remember the session",
		Long: `Log in to the dashboard and remember the session.

The session cookie is stored per server under
$XDG_CONFIG_HOME/astroboard/sessions/ with mode 0600 and sent by every
other command.`,
		Example: `  astroboard login -U admin
  echo "$PASSWORD" | astroboard login -U admin --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := bufio.NewReader(c.in)
			if username == "" {
				fmt.Fprint(c.err, "Username: ")
				line, err := in.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read username: %w", err)
				}
				username = strings.TrimSpace(line)
			}
			password, err := c.readPassword(in, passwordStdin)
			if err != nil {
				return err
			}
			sess, err := c.login(ctx, username, password, ttl)
			if err != nil {
				return err
			}
			printSuccess(c.out, "Logged in as %s (%s)", sess.Username, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "U", "", "user name (prompted when empty)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().DurationVar(&ttl, "ttl", session.DefaultTTL, "how long to keep the session")
	return cmd
}

// readPassword prompts without echo on a terminal and otherwise reads one
// line from in.
func (c *CLI) readPassword(in *bufio.Reader, fromStdin bool) (string, error) {
	if f, ok := c.in.(*os.File); ok && !fromStdin && term.IsTerminal(f.Fd()) {
		fmt.Fprint(c.err, "Password: ")
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(c.err)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// login posts the credentials and stores the returned session cookie.
func (c *CLI) login(ctx context.Context, username, password string, ttl time.Duration) (*session.Session, error) {
	if username == "" || password == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "username and password are required")
	}
	// A 401 here means bad credentials, not an expired session.
	client, err := c.newClientWith()
	if err != nil {
		return nil, err
	}
	req, err := fetch.JSONRequest(http.MethodPost, map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	resp, err := client.FetchWithRetry(ctx, "/api/auth/login", req, fetch.SingleAttempt)
	if err != nil {
		return nil, err
	}
	p, err := resp.Payload()
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errors.FromStatus(resp.StatusCode, resp.Status, resp.Endpoint, p.ErrorText())
	}
	body, err := fetch.Decode[loginResponse](p)
	if err != nil {
		return nil, err
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "server did not set a session cookie")
	}

	sess, err := session.New(c.cfg.URL, body.Username, body.Role, cookies, ttl)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	store, err := c.sessionStore()
	if err != nil {
		return nil, err
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.Logger.Debug("session saved", "path", store.Path())
	if body.UsingDefaultPassword {
		printWarning(c.err, "You are using the default password; change it in the dashboard settings")
	}
	return sess, nil
}

// logoutCommand creates the "logout" command.
func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, sess := c.loadSession(ctx)
			if sess == nil {
				printInfo(c.out, "Not logged in")
				return nil
			}
			client, err := c.newClientWith(fetch.WithCookies(sess.HTTPCookies()...))
			if err != nil {
				return err
			}
			if _, err := client.PostJSON(ctx, "/api/auth/logout", struct{}{}); err != nil && !errors.Is(err, errors.ErrCodeUnauthorized) {
				c.Logger.Warn("server logout failed", "err", err)
			}
			if err := store.DeleteSession(ctx); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess(c.out, "Logged out")
			return nil
		},
	}
}

// whoamiView is the JSON/YAML form of whoami.
type whoamiView struct {
	resources.AuthStatus `yaml:",inline"`
	Server               string    `json:"server" yaml:"server"`
	ExpiresAt            time.Time `json:"session_expires_at" yaml:"session_expires_at"`
}

// whoamiCommand creates the "whoami" command.
func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, sess := c.loadSession(ctx)
			if sess == nil {
				printNextStep(c.err, "Not logged in; log in with", "astroboard login")
				return fmt.Errorf("%s: %w", c.cfg.URL, session.ErrNotFound)
			}
			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			p, err := client.FetchJSONWithRetry(ctx, resources.Auth.Path, fetch.Request{}, c.plainPolicy())
			if err != nil {
				return err
			}
			status, err := fetch.Decode[resources.AuthStatus](p)
			if err != nil {
				return err
			}
			if !status.Authenticated {
				_ = store.DeleteSession(ctx)
				printNextStep(c.err, "Session expired; log in with", "astroboard login")
				return fmt.Errorf("%s: %w", c.cfg.URL, session.ErrExpired)
			}

			v := whoamiView{AuthStatus: status, Server: c.cfg.URL, ExpiresAt: sess.ExpiresAt}
			return c.render(v, func(w io.Writer) {
				printTitle(w, "Session")
				printKeyValue(w, "User", status.Username)
				printKeyValue(w, "Role", status.Role)
				printKeyValue(w, "Server", c.cfg.URL)
				printKeyValue(w, "Logged in", sess.CreatedAt.Format("Jan 2 15:04"))
				printKeyValue(w, "Expires", sess.ExpiresAt.Format("Jan 2 15:04"))
			})
		},
	}
}
