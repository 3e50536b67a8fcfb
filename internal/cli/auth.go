package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/MrSnakeDoc/sitesaver/internal/auth"
	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// AuthService is the sign-in glue the terminal drives.
type AuthService interface {
	Configured() bool
	ConsentURL(state, nonce string) (string, error)
	Complete(ctx context.Context, redirectedTo, wantState, nonce string) (auth.User, error)
	SignOut(ctx context.Context) error
	CurrentUser() (auth.User, bool)
}

// AuthCmd handles sign-in operations independent of cobra.
type AuthCmd struct {
	svc     AuthService
	logins  *auth.Logins
	openURL func(url string) error
	prompt  func(msg string) (string, error)
}

type AuthLoginInput struct {
	NoBrowser   bool
	RedirectURL string // skips the prompt when set
}

type AuthWhoAmIInput struct {
	Output string
}

type whoAmI struct {
	Authenticated bool       `json:"authenticated"`
	User          *auth.User `json:"user,omitempty"`
}

func (c AuthCmd) Login(ctx context.Context, in AuthLoginInput) error {
	if !c.svc.Configured() {
		return domain.Invalid("sign-in is not configured", map[string]string{
			"env": "set SITESAVER_BACKEND_URL and SITESAVER_OAUTH_CLIENT_ID",
		})
	}
	if u, ok := c.svc.CurrentUser(); ok {
		pterm.Info.Printf("Already signed in as %s\n", displayUser(u))
		return nil
	}

	pending, err := c.logins.Begin(c.svc)
	if err != nil {
		return err
	}

	pterm.Info.Println("Open this URL in your browser to sign in:")
	pterm.Println()
	pterm.Println("  " + pending.URL)
	pterm.Println()
	if !in.NoBrowser {
		if err := c.openURL(pending.URL); err != nil {
			pterm.Warning.Printf("Could not open browser automatically: %v\n", err)
		} else {
			pterm.Info.Println("(Opened in browser)")
		}
	}

	redirected := strings.TrimSpace(in.RedirectURL)
	if redirected == "" {
		redirected, err = c.prompt("Paste the URL your browser was redirected to")
		if err != nil {
			return err
		}
	}

	if _, ok := c.logins.Take(pending.State); !ok {
		return domain.Invalid("login request expired", map[string]string{"state": "run login again"})
	}

	u, err := c.svc.Complete(ctx, redirected, pending.State, pending.Nonce)
	if err != nil {
		printValidation(err)
		return err
	}
	pterm.Success.Printf("Signed in as %s\n", displayUser(u))
	return nil
}

func (c AuthCmd) Logout(ctx context.Context) error {
	if _, ok := c.svc.CurrentUser(); !ok {
		pterm.Info.Println("Not signed in")
		return nil
	}
	if err := c.svc.SignOut(ctx); err != nil {
		// The local session is gone either way.
		pterm.Warning.Printf("Backend sign out failed: %v\n", err)
	}
	pterm.Success.Println("Signed out")
	return nil
}

func (c AuthCmd) WhoAmI(_ context.Context, in AuthWhoAmIInput) error {
	if err := validateOutput(in.Output); err != nil {
		return err
	}

	u, ok := c.svc.CurrentUser()
	if in.Output == "json" {
		res := whoAmI{Authenticated: ok}
		if ok {
			res.User = &u
		}
		return printJSON(res)
	}
	if !ok {
		pterm.Info.Println("Not signed in")
		return nil
	}

	rows := pterm.TableData{{"Property", "Value"}}
	rows = append(rows, []string{"User ID", u.ID})
	if u.Email != "" {
		rows = append(rows, []string{"Email", u.Email})
	}
	printTable(rows)
	return nil
}

func displayUser(u auth.User) string {
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

func promptText(msg string) (string, error) {
	v, err := pterm.DefaultInteractiveTextInput.Show(msg)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", errors.New("no redirect URL entered")
	}
	return v, nil
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to sync the cloud catalogue",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with the identity provider",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out on this device",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authWhoAmICmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runAuthWhoAmI,
}

func init() {
	authLoginCmd.Flags().Bool("no-browser", false, "Print the URL without opening a browser")
	authLoginCmd.Flags().String("redirect-url", "", "Redirected URL, instead of prompting for it")
	authWhoAmICmd.Flags().StringP("output", "o", "", "Output format (json)")

	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authWhoAmICmd)
	rootCmd.AddCommand(authCmd)
}

func withAuth(cmd *cobra.Command, fn func(ctx context.Context, c AuthCmd) error) error {
	a := newApp(true)
	defer a.Close()

	ctx := cmd.Context()
	a.RestoreSession(ctx)
	return fn(ctx, AuthCmd{
		svc:     a.Auth(),
		logins:  a.Logins(),
		openURL: browser.OpenURL,
		prompt:  promptText,
	})
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	noBrowser, _ := cmd.Flags().GetBool("no-browser")
	redirectURL, _ := cmd.Flags().GetString("redirect-url")
	return withAuth(cmd, func(ctx context.Context, c AuthCmd) error {
		return c.Login(ctx, AuthLoginInput{NoBrowser: noBrowser, RedirectURL: redirectURL})
	})
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	return withAuth(cmd, func(ctx context.Context, c AuthCmd) error {
		return c.Logout(ctx)
	})
}

func runAuthWhoAmI(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")
	return withAuth(cmd, func(ctx context.Context, c AuthCmd) error {
		return c.WhoAmI(ctx, AuthWhoAmIInput{Output: output})
	})
}
