package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/keyring"
	"github.com/julianstephens/streaklit/internal/storage/postgres"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL password in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Check for a stored PostgreSQL password."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove the stored PostgreSQL password."`
	Status KeyringStatusCmd `cmd:"" help:"Check OS keyring availability." default:"1"`
}

// resolveRole selects the keyring entry. Without --role the role in a
// PostgreSQL --config connection string is used.
func resolveRole(ctx *cli.Context, role string) string {
	if role != "" {
		return role
	}
	if ctx.Store != nil {
		if config := ctx.Store.GetConfigPath(); postgres.IsConnString(config) {
			return postgres.Role(config)
		}
	}
	return ""
}

func describe(role string) string {
	if role == "" {
		return "default entry"
	}
	return fmt.Sprintf("role %q", role)
}

// KeyringSetCmd stores a database password in the OS keyring
type KeyringSetCmd struct {
	Role     string `help:"Database role the password belongs to."`
	Password string `arg:"" optional:"" help:"Password to store. Prompts when omitted."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	password := cmd.Password
	if password == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("PostgreSQL password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("password cannot be empty")
					}
					return nil
				}),
		))
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				ctx.Println("Cancelled.")
				return nil
			}
			return err
		}
	}

	role := resolveRole(ctx, cmd.Role)
	if err := keyring.SetPassword(role, password); err != nil {
		return err
	}
	ctx.Printf("✓ Password stored in OS keyring (%s)\n", describe(role))
	return nil
}

// KeyringGetCmd reports whether a password is stored, without printing it
// unless asked to
type KeyringGetCmd struct {
	Role   string `help:"Database role the password belongs to."`
	Reveal bool   `help:"Print the stored password."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	role := resolveRole(ctx, cmd.Role)
	pw, err := keyring.GetPassword(role)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no password found in keyring for %s. Use 'streaklit keyring set' to store one", describe(role))
		}
		return fmt.Errorf("failed to retrieve password from keyring: %w", err)
	}
	if cmd.Reveal {
		ctx.Println(pw)
		return nil
	}
	ctx.Printf("Password stored for %s: %s\n", describe(role), maskPassword(pw))
	return nil
}

// KeyringDeleteCmd removes a database password from the OS keyring
type KeyringDeleteCmd struct {
	Role string `help:"Database role the password belongs to."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	role := resolveRole(ctx, cmd.Role)
	if err := keyring.DeletePassword(role); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no password found in keyring for %s", describe(role))
		}
		return err
	}
	ctx.Printf("✓ Password deleted from OS keyring (%s)\n", describe(role))
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct {
	Role string `help:"Database role the password belongs to."`
}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")

	role := resolveRole(ctx, cmd.Role)
	_, err := keyring.GetPassword(role)
	switch {
	case err == nil:
		ctx.Printf("✓ Password is stored for %s\n", describe(role))
	case errors.Is(err, keyring.ErrNotFound):
		ctx.Printf("ℹ No password stored for %s\n", describe(role))
	default:
		return err
	}
	return nil
}

// maskPassword keeps the first character and hides the rest
func maskPassword(pw string) string {
	runes := []rune(pw)
	if len(runes) <= 1 {
		return "****"
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-1)
}
