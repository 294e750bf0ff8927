package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marat/regdesk/internal/api"
	"github.com/marat/regdesk/internal/config"
	"github.com/marat/regdesk/internal/output"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage server authentication",
	GroupID: "system",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the registration server",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL := config.GetServerURL()
		client := api.New(serverURL, "")

		fmt.Print("Email: ")
		reader := bufio.NewReader(os.Stdin)
		email, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(email)
		if email == "" {
			return fmt.Errorf("email required")
		}

		fmt.Print("Password: ")
		password, err := readPassword()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Println()
		if password == "" {
			return fmt.Errorf("password required")
		}

		resp, err := client.Login(email, password)
		if err != nil {
			output.Error("login: %v", err)
			return err
		}

		deviceID, err := config.GetDeviceID()
		if err != nil {
			return fmt.Errorf("get device id: %w", err)
		}

		creds := &config.AuthCredentials{
			Token:     resp.BearerToken(),
			Email:     email,
			UserID:    resp.User.ID,
			ServerURL: serverURL,
			DeviceID:  deviceID,
		}
		if resp.User.Email != "" {
			creds.Email = resp.User.Email
		}

		if err := config.SaveAuth(creds); err != nil {
			output.Error("save credentials: %v", err)
			return err
		}

		output.Success("Logged in as %s", creds.Email)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out from the registration server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ClearAuth(); err != nil {
			output.Error("logout: %v", err)
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := config.LoadAuth()
		if err != nil {
			output.Error("load auth: %v", err)
			return err
		}

		if creds == nil || creds.Token == "" {
			fmt.Println("Not logged in.")
			return nil
		}

		tokenPrefix := creds.Token
		if len(tokenPrefix) > 12 {
			tokenPrefix = tokenPrefix[:12] + "..."
		}

		fmt.Printf("Email:  %s\n", creds.Email)
		fmt.Printf("Server: %s\n", creds.ServerURL)
		fmt.Printf("Token:  %s\n", tokenPrefix)
		return nil
	},
}

// readPassword reads without echo on a terminal, falling back to plain
// line reading for piped input.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
