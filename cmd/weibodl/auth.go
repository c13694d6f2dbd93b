package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"weibodl/pkg/auth"
	"weibodl/pkg/ui"
)

var (
	loginName  string
	loginQuick bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Weibo sessions",
	Long: `Manage the Weibo browser sessions weibodl sends with metadata requests.

Sessions are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (WEIBODL_COOKIE, read only)

Never share your cookie or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a Weibo session cookie securely",
	Long: `Store the Cookie header of a logged in weibo.com tab.

You will be prompted for:
  - The full Cookie header (hidden as you type)
  - User Agent (optional, press Enter for default)

The cookie must contain SUB. Type 'help' at the prompt for detailed
instructions on copying it from your browser.`,
	Example: `  # Store the default session
  weibodl auth login

  # Store a second session under its own name
  weibodl auth login --name alt`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored session",
	Example: `  # Remove the default session
  weibodl auth logout

  # Remove a named session
  weibodl auth logout alt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored sessions",
	Long:  `List all stored sessions with their cookie values masked.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().StringVarP(&loginName, "name", "n", auth.DefaultAccount, "name to store the session under")
	loginCmd.Flags().BoolVar(&loginQuick, "quick", false, "show the condensed extraction guide")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	out := ui.Output
	reader := bufio.NewReader(os.Stdin)

	if loginQuick {
		auth.ShowQuickExtractGuide(out)
	} else {
		auth.ShowCookieExtractionGuide(out)
	}

	if existing, _ := manager.Retrieve(loginName); existing != nil && existing.Name == loginName {
		fmt.Fprintf(out, "\n⚠️  Session '%s' already exists. Replace it? (y/N): ", loginName)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	var cookie string
	for {
		fmt.Fprint(out, "\n🔐 Cookie header: ")
		cookie, err = readSecret(reader)
		if err != nil {
			ui.PrintError("Failed to read cookie", err.Error())
			return err
		}

		if strings.EqualFold(cookie, "help") {
			auth.ShowCookieExtractionGuide(out)
			continue
		}
		if err := auth.ValidateCookie(cookie); err != nil {
			fmt.Fprintf(out, "\n❌ %v\n", err)
			fmt.Fprint(out, "Try again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				return err
			}
			continue
		}
		break
	}

	fmt.Fprint(out, "\n🌐 User Agent (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	account := &auth.Account{
		Name:         loginName,
		Cookie:       cookie,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store session", err.Error())
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Session saved: %s", loginName))
	fmt.Fprintln(out, "\n📖 Quick Start:")
	fmt.Fprintln(out, "   $ weibodl post <permalink>")
	if loginName != auth.DefaultAccount {
		fmt.Fprintf(out, "   $ weibodl post <permalink> --account %s\n", loginName)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	name := auth.DefaultAccount
	if len(args) > 0 {
		name = args[0]
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove session", err.Error())
		return err
	}
	ui.PrintSuccess("Session removed: " + name)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list sessions", err.Error())
		return err
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored sessions", "Use 'weibodl auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Sessions")
	out := ui.Output
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Fprintf(out, "%d. %s\n", i+1, sanitized.Name)
		fmt.Fprintf(out, "   Cookie: %s\n", sanitized.Cookie)
		if sanitized.UserAgent != "" {
			fmt.Fprintf(out, "   User Agent: %s\n", sanitized.UserAgent)
		}
		fmt.Fprintf(out, "   Last Modified: %s\n\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(ui.Output)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
