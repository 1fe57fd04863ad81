package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bageldb/bagel-go"
)

type collectionView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata bagel.Metadata `json:"metadata,omitempty"`
}

func viewOf(c *bagel.Collection) collectionView {
	return collectionView{ID: c.ID, Name: c.Name, Metadata: c.Metadata}
}

func newCollectionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"cols"},
		Short:   "Manage collections",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List collections",
			Args:  cobra.NoArgs,
			RunE: run(opts, func(ctx context.Context, a *app, _ []string) error {
				cols, err := a.client.Collections(ctx)
				if err != nil {
					return err
				}
				out := make([]collectionView, len(cols))
				for i, c := range cols {
					out[i] = viewOf(c)
				}
				return a.printJSON(out)
			}),
		},
		newCreateCollectionCmd(opts),
		&cobra.Command{
			Use:   "get NAME",
			Short: "Show a collection",
			Args:  cobra.ExactArgs(1),
			RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
				c, err := a.client.GetCollection(ctx, args[0])
				if err != nil {
					return err
				}
				return a.printJSON(viewOf(c))
			}),
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a collection and its records",
			Args:  cobra.ExactArgs(1),
			RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
				return a.client.DeleteCollection(ctx, args[0])
			}),
		},
		newModifyCollectionCmd(opts),
	)
	return cmd
}

func newCreateCollectionCmd(opts *rootOptions) *cobra.Command {
	var (
		metadata    string
		model       string
		owner       string
		getOrCreate bool
	)
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			md, err := parseMetadata(metadata)
			if err != nil {
				return err
			}
			var colOpts []bagel.CollectionOption
			if md != nil {
				colOpts = append(colOpts, bagel.WithMetadata(md))
			}
			if model != "" {
				colOpts = append(colOpts, bagel.WithEmbeddingModel(model))
			}
			if owner != "" {
				colOpts = append(colOpts, bagel.WithOwner(owner))
			}

			create := a.client.CreateCollection
			if getOrCreate {
				create = a.client.GetOrCreateCollection
			}
			c, err := create(ctx, args[0], colOpts...)
			if err != nil {
				return err
			}
			return a.printJSON(viewOf(c))
		}),
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", "Collection metadata as a JSON object")
	cmd.Flags().StringVar(&model, "embedding-model", "", "Server-side embedding model")
	cmd.Flags().StringVar(&owner, "owner", "", "User id owning the collection")
	cmd.Flags().BoolVar(&getOrCreate, "get-or-create", false, "Return the existing collection instead of failing")
	return cmd
}

func newModifyCollectionCmd(opts *rootOptions) *cobra.Command {
	var (
		name     string
		metadata string
	)
	cmd := &cobra.Command{
		Use:   "modify NAME",
		Short: "Rename a collection or replace its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			md, err := parseMetadata(metadata)
			if err != nil {
				return err
			}
			c, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			if err := c.Modify(ctx, name, md); err != nil {
				return err
			}
			return a.printJSON(viewOf(c))
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "New collection name")
	cmd.Flags().StringVar(&metadata, "metadata", "", "New metadata as a JSON object")
	return cmd
}
