package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/angelmondragon/bakery-backend/cmd/bakeryctl/output"
	"github.com/angelmondragon/bakery-backend/internal/users"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
)

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Grant, revoke and inspect the admin role",
		Long: `The admin role lives on the profile row and is re-read on every
privileged request, so changes apply without re-login.`,
	}
	cmd.AddCommand(
		newSetRoleCmd(opts, "grant", "Make a registered user an admin", enums.ProfileRoleAdmin),
		newSetRoleCmd(opts, "revoke", "Return an admin to the customer role", enums.ProfileRoleCustomer),
		&cobra.Command{
			Use:   "check <email>",
			Short: "Show the stored role for a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withBackend(cmd, func(ctx context.Context, b *Backend, p *output.Printer) error {
					return runAdminCheck(ctx, opts, b, p, cmd, args[0])
				})
			},
		},
	)
	return cmd
}

func newSetRoleCmd(opts *rootOptions, use, short string, role enums.ProfileRole) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b *Backend, p *output.Printer) error {
				email := users.NormalizeEmail(args[0])
				if err := b.Profiles.SetRole(ctx, email, role); err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.writeJSON(cmd.OutOrStdout(), map[string]any{"email": email, "role": role})
				}
				p.Success("%s is now %s", email, role)
				return nil
			})
		},
	}
}

func runAdminCheck(ctx context.Context, opts *rootOptions, b *Backend, p *output.Printer, cmd *cobra.Command, raw string) error {
	email := users.NormalizeEmail(raw)
	user, err := b.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no user registered as %s", email)
		}
		return fmt.Errorf("looking up %s: %w", email, err)
	}
	role, err := b.Profiles.RoleOf(ctx, user.ID)
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return opts.writeJSON(cmd.OutOrStdout(), map[string]any{
			"email":    email,
			"user_id":  user.ID,
			"role":     role,
			"is_admin": role.IsAdmin(),
		})
	}
	p.KeyValue("user", user.ID)
	p.KeyValue("role", role)
	if role.IsAdmin() {
		p.Success("%s has admin access", email)
	} else {
		p.Warning("%s is not an admin", email)
	}
	return nil
}
