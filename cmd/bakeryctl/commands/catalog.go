package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/angelmondragon/bakery-backend/cmd/bakeryctl/output"
	"github.com/angelmondragon/bakery-backend/internal/catalog"
	"github.com/angelmondragon/bakery-backend/internal/catalog/editor"
	"github.com/angelmondragon/bakery-backend/internal/users"
)

type editOptions struct {
	actor   string
	base    int
	opsPath string
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect, seed and edit the product catalog",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active catalog revision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b *Backend, p *output.Printer) error {
				active, err := b.Catalog.Active(ctx)
				if err != nil {
					return err
				}
				return opts.renderCatalog(cmd, p, active)
			})
		},
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Publish the default catalog when no revision exists yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b *Backend, p *output.Printer) error {
				dto, created, err := b.Catalog.Seed(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.writeJSON(cmd.OutOrStdout(), map[string]any{"created": created, "catalog": dto})
				}
				if created {
					p.Success("seeded catalog revision %d", dto.Revision)
				} else {
					p.Warning("catalog already has revision %d, nothing seeded", dto.Revision)
				}
				return nil
			})
		},
	}

	edit := newCatalogEditCmd(opts)
	cmd.AddCommand(show, seed, edit)
	return cmd
}

func newCatalogEditCmd(opts *rootOptions) *cobra.Command {
	eo := &editOptions{}
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply editor operations to the active catalog",
		Long: `Reads a JSON array of editor operations and saves the result as a new
revision. Without --base the active revision is used as the base.

Example ops file:
  [{"op":"add_item","category":0},
   {"op":"rename_item","category":0,"item":3,"name":"חלה מתוקה"}]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ops, err := readOps(cmd.InOrStdin(), eo.opsPath)
			if err != nil {
				return err
			}
			return opts.withBackend(cmd, func(ctx context.Context, b *Backend, p *output.Printer) error {
				actor, err := b.Users.FindByEmail(ctx, users.NormalizeEmail(eo.actor))
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("no user registered as %s", eo.actor)
					}
					return err
				}
				base := eo.base
				if !cmd.Flags().Changed("base") {
					active, err := b.Catalog.Active(ctx)
					if err != nil {
						return err
					}
					base = active.Revision
				}
				saved, err := b.Catalog.ApplyEdits(ctx, catalog.EditInput{
					ActorUserID:  actor.ID,
					BaseRevision: base,
					Ops:          ops,
				})
				if err != nil {
					return err
				}
				if saved.Revision == base {
					p.Warning("operations left the catalog unchanged")
				} else {
					p.Success("saved catalog revision %d", saved.Revision)
				}
				return opts.renderCatalog(cmd, p, saved)
			})
		},
	}
	cmd.Flags().StringVar(&eo.actor, "as", "", "Email of the admin making the change (required)")
	cmd.Flags().IntVar(&eo.base, "base", 0, "Revision the operations were prepared against")
	cmd.Flags().StringVar(&eo.opsPath, "ops", "-", "Path to the operations file, - for stdin")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func readOps(stdin io.Reader, path string) ([]editor.Operation, error) {
	src := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening ops file: %w", err)
		}
		defer f.Close()
		src = f
	}
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	var ops []editor.Operation
	if err := dec.Decode(&ops); err != nil {
		return nil, fmt.Errorf("decoding ops: %w", err)
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("no operations given")
	}
	return ops, nil
}

func (o *rootOptions) renderCatalog(cmd *cobra.Command, p *output.Printer, dto *catalog.CatalogDTO) error {
	if o.jsonOutput {
		return o.writeJSON(cmd.OutOrStdout(), dto)
	}
	if dto.Revision == 0 {
		p.Warning("no catalog has been published")
		return nil
	}
	p.Section(fmt.Sprintf("Catalog revision %d", dto.Revision))
	for i, cat := range dto.Categories {
		p.Line("%d. %s  ₪%.2f", i, cat.Title, cat.Price)
		for j, item := range cat.Items {
			p.Muted("     %d. #%d %s", j, item.ID, item.Name)
		}
	}
	p.Muted("%d items in %d categories", dto.Categories.ItemCount(), len(dto.Categories))
	return nil
}
