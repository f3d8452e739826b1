package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/bakery-backend/cmd/bakeryctl/output"
	"github.com/angelmondragon/bakery-backend/internal/catalog"
	"github.com/angelmondragon/bakery-backend/internal/orders"
	"github.com/angelmondragon/bakery-backend/internal/profiles"
	"github.com/angelmondragon/bakery-backend/internal/users"
	"github.com/angelmondragon/bakery-backend/pkg/config"
	"github.com/angelmondragon/bakery-backend/pkg/db"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/delivery"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
)

type roleAdmin interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (enums.ProfileRole, error)
	SetRole(ctx context.Context, email string, role enums.ProfileRole) error
}

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type catalogAdmin interface {
	Active(ctx context.Context) (*catalog.CatalogDTO, error)
	Seed(ctx context.Context) (*catalog.CatalogDTO, bool, error)
	ApplyEdits(ctx context.Context, input catalog.EditInput) (*catalog.CatalogDTO, error)
}

type statsSource interface {
	Stats(ctx context.Context) (*orders.Stats, error)
}

// Backend is the set of services the commands operate on.
type Backend struct {
	Profiles roleAdmin
	Users    userFinder
	Catalog  catalogAdmin
	Orders   statsSource
	Close    func() error
}

// Opener connects a Backend. Commands call it lazily so --help works
// without a database.
type Opener func(ctx context.Context) (*Backend, error)

type rootOptions struct {
	open       Opener
	jsonOutput bool
	timeout    time.Duration
}

// Execute runs bakeryctl against the configured database.
func Execute() {
	if err := NewRootCmd(OpenDatabase).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// NewRootCmd assembles the command tree around open.
func NewRootCmd(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}
	root := &cobra.Command{
		Use:   "bakeryctl",
		Short: "Operator tooling for the bakery backend",
		Long: `bakeryctl manages admin roles, the product catalog and order
reporting directly against the bakery database.

Examples:
  bakeryctl admin grant owner@example.com
  bakeryctl catalog seed
  bakeryctl catalog edit --as owner@example.com --base 3 --ops ops.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Deadline for the whole command")

	root.AddCommand(
		newAdminCmd(opts),
		newCatalogCmd(opts),
		newOrdersCmd(opts),
	)
	return root
}

// withBackend opens the backend under the command deadline and closes it
// when fn returns.
func (o *rootOptions) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *Backend, p *output.Printer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	backend, err := o.open(ctx)
	if err != nil {
		return err
	}
	if backend.Close != nil {
		defer backend.Close()
	}
	return fn(ctx, backend, output.New(cmd.OutOrStdout()))
}

func (o *rootOptions) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// describe renders service errors by their public message and code.
func describe(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return fmt.Sprintf("%s (%s)", typed.Message(), typed.Code())
	}
	return err.Error()
}

// OpenDatabase loads configuration from the environment and builds the
// services on a fresh database connection.
func OpenDatabase(ctx context.Context) (*Backend, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "bakeryctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Output:      os.Stderr,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Delivery.Location()
	if err != nil {
		client.Close()
		return nil, err
	}
	calendar := delivery.NewCalculator(loc, time.Now)

	conn := client.DB()
	userRepo := users.NewRepository(conn)
	profileService, err := profiles.NewService(profiles.ServiceParams{
		Repo:  profiles.NewRepository(conn),
		Users: userRepo,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Tx:     client,
		Repo:   catalog.NewRepository(conn),
		Roles:  profileService,
		Logger: logg,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	adminOrders, err := orders.NewAdminService(orders.AdminServiceParams{
		Repo:     orders.NewRepository(conn),
		Calendar: calendar,
		Logger:   logg,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Backend{
		Profiles: profileService,
		Users:    userRepo,
		Catalog:  catalogService,
		Orders:   adminOrders,
		Close:    client.Close,
	}, nil
}
