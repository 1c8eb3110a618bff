// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cookbook/internal/store"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentialsFromFlags(cmd)
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		u, err := svc.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		if err := svc.Session().Save(); err != nil {
			return err
		}
		printer.Success("Signed in as %s (%d favorites)", displayName(u.Name, u.Email), len(svc.Favorites()))
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account on the local store and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentialsFromFlags(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		svc, err := newService()
		if err != nil {
			return err
		}
		u, err := svc.SignUp(cmd.Context(), store.Credentials{Name: name, Email: email, Password: password})
		if err != nil {
			return err
		}
		if err := svc.Session().Save(); err != nil {
			return err
		}
		printer.Success("Welcome, %s", displayName(u.Name, u.Email))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		svc.Logout()
		if err := svc.Session().Save(); err != nil {
			return err
		}
		printer.Success("Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		u, ok := svc.Session().User()
		if !ok {
			printer.Info("Not signed in.")
			return nil
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printer.JSON(u)
		}
		printer.Print("%s <%s>", displayName(u.Name, u.Email), u.Email)
		printer.Print("%s", printer.Dim(fmt.Sprintf("id %s, signed in %s", u.ID,
			svc.Session().SignedInAt().Format("2006-01-02 15:04"))))
		return nil
	},
}

// credentialsFromFlags takes --email and --password, prompting on stdin for
// whichever is missing.
func credentialsFromFlags(cmd *cobra.Command) (email, password string, err error) {
	email, _ = cmd.Flags().GetString("email")
	password, _ = cmd.Flags().GetString("password")

	in := bufio.NewReader(cmd.InOrStdin())
	if email == "" {
		if email, err = prompt(cmd.ErrOrStderr(), in, "Email: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = prompt(cmd.ErrOrStderr(), in, "Password: "); err != nil {
			return "", "", err
		}
	}
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password are required")
	}
	return email, password, nil
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().String("email", "", "account email")
		c.Flags().String("password", "", "account password (prompted when omitted)")
	}
	signupCmd.Flags().String("name", "", "display name")
	whoamiCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)
}
