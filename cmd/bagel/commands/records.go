package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bageldb/bagel-go"
)

// recordFlags are the column flags shared by add, upsert and update.
type recordFlags struct {
	ids        string
	embeddings string
	metadatas  string
	documents  string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ids, "ids", "", `Record ids as JSON, e.g. '["a","b"]'`)
	cmd.Flags().StringVar(&f.embeddings, "embeddings", "", "Embeddings as JSON, one vector or a list of vectors")
	cmd.Flags().StringVar(&f.metadatas, "metadatas", "", "Metadata as JSON, one object or a list of objects")
	cmd.Flags().StringVar(&f.documents, "documents", "", "Documents as JSON, one string or a list of strings")
}

type parsedRecords struct {
	ids        bagel.IDInput
	embeddings bagel.VectorInput
	metadatas  bagel.MetadataInput
	documents  bagel.DocumentInput
}

func (f *recordFlags) parse() (parsedRecords, error) {
	var (
		p   parsedRecords
		err error
	)
	if p.ids, err = parseIDs(f.ids); err != nil {
		return p, err
	}
	if p.embeddings, err = parseEmbeddings("embeddings", f.embeddings); err != nil {
		return p, err
	}
	if p.metadatas, err = parseMetadatas(f.metadatas); err != nil {
		return p, err
	}
	if p.documents, err = parseDocuments("documents", f.documents); err != nil {
		return p, err
	}
	return p, nil
}

// generateIDs returns one random id per record when none were given.
func (p *parsedRecords) generateIDs() []string {
	n := 0
	switch {
	case p.documents != nil:
		n = len(p.documents.Many())
	case p.embeddings != nil:
		n = len(p.embeddings.Many())
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	return ids
}

func newAddCmd(opts *rootOptions, op string) *cobra.Command {
	var (
		f         recordFlags
		skipIndex bool
	)
	cmd := &cobra.Command{
		Use:   op + " COLLECTION",
		Short: "Insert records into a collection",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			p, err := f.parse()
			if err != nil {
				return err
			}
			if p.ids == nil {
				p.ids = bagel.IDBatch(p.generateIDs())
			}
			col, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			req := bagel.AddRequest{
				IDs:        p.ids,
				Embeddings: p.embeddings,
				Metadatas:  p.metadatas,
				Documents:  p.documents,
				SkipIndex:  skipIndex,
			}
			write := col.Add
			if op == "upsert" {
				write = col.Upsert
			}
			if err := write(ctx, req); err != nil {
				return err
			}
			a.logger.Info("Records written", zap.String("op", op), zap.Int("count", len(p.ids.Many())))
			return a.printJSON(p.ids.Many())
		}),
	}
	if op == "upsert" {
		cmd.Short = "Insert records or replace existing ones"
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&skipIndex, "skip-index", false, "Do not update the index; run create-index afterwards")
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "update COLLECTION",
		Short: "Change existing records",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			p, err := f.parse()
			if err != nil {
				return err
			}
			col, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			return col.Update(ctx, bagel.UpdateRequest{
				IDs:        p.ids,
				Embeddings: p.embeddings,
				Metadatas:  p.metadatas,
				Documents:  p.documents,
			})
		}),
	}
	f.register(cmd)
	return cmd
}

// filterFlags are the selection flags shared by get, query and remove.
type filterFlags struct {
	ids           string
	where         string
	whereDocument string
}

func (f *filterFlags) register(cmd *cobra.Command, withIDs bool) {
	if withIDs {
		cmd.Flags().StringVar(&f.ids, "ids", "", "Restrict to these ids (JSON)")
	}
	cmd.Flags().StringVar(&f.where, "where", "", `Metadata filter, e.g. '{"year":{"$gte":2020}}'`)
	cmd.Flags().StringVar(&f.whereDocument, "where-document", "", `Document filter, e.g. '{"$contains":"go"}'`)
}

func (f *filterFlags) parse() (bagel.IDInput, bagel.Where, bagel.WhereDocument, error) {
	ids, err := parseIDs(f.ids)
	if err != nil {
		return nil, nil, nil, err
	}
	w, err := parseWhere(f.where)
	if err != nil {
		return nil, nil, nil, err
	}
	wd, err := parseWhereDocument(f.whereDocument)
	if err != nil {
		return nil, nil, nil, err
	}
	return ids, w, wd, nil
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	var (
		f        filterFlags
		sort     string
		limit    int
		offset   int
		page     int
		pageSize int
		include  []string
	)
	cmd := &cobra.Command{
		Use:   "get COLLECTION",
		Short: "Fetch records by id or filter",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			ids, w, wd, err := f.parse()
			if err != nil {
				return err
			}
			col, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := col.Get(ctx, bagel.GetRequest{
				IDs:           ids,
				Where:         w,
				WhereDocument: wd,
				Sort:          sort,
				Limit:         limit,
				Offset:        offset,
				Page:          page,
				PageSize:      pageSize,
				Include:       parseInclude(include),
			})
			if err != nil {
				return err
			}
			return a.printJSON(res)
		}),
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&sort, "sort", "", "Metadata field to sort by")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	cmd.Flags().IntVar(&page, "page", 0, "1-based page number, used with --page-size")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Records per page")
	cmd.Flags().StringSliceVar(&include, "include", nil, "Fields to return: documents, embeddings, metadatas")
	return cmd
}

func newPeekCmd(opts *rootOptions) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "peek COLLECTION",
		Short: "Show the first records of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			col, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := col.Peek(ctx, n)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		}),
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 10, "Number of records")
	return cmd
}

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		f          filterFlags
		embeddings string
		texts      []string
		nResults   int
		include    []string
	)
	cmd := &cobra.Command{
		Use:   "query COLLECTION",
		Short: "Find nearest neighbours by embedding or text",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			_, w, wd, err := f.parse()
			if err != nil {
				return err
			}
			req := bagel.QueryRequest{
				NResults:      nResults,
				Where:         w,
				WhereDocument: wd,
				Include:       parseInclude(include),
			}
			if req.QueryEmbeddings, err = parseEmbeddings("embedding", embeddings); err != nil {
				return err
			}
			if len(texts) > 0 {
				req.QueryTexts = bagel.DocumentBatch(texts)
			}
			col, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := col.Query(ctx, req)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		}),
	}
	f.register(cmd, false)
	cmd.Flags().StringVar(&embeddings, "embedding", "", "Query vector(s) as JSON")
	cmd.Flags().StringArrayVar(&texts, "text", nil, "Query text, repeatable")
	cmd.Flags().IntVarP(&nResults, "n-results", "n", 10, "Results per query")
	cmd.Flags().StringSliceVar(&include, "include", nil, "Fields to return: documents, embeddings, metadatas, distances")
	cmd.MarkFlagsMutuallyExclusive("embedding", "text")
	cmd.MarkFlagsOneRequired("embedding", "text")
	return cmd
}

func newCountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count COLLECTION",
		Short: "Count records in a collection",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			col, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			n, err := col.Count(ctx)
			if err != nil {
				return err
			}
			return a.printJSON(n)
		}),
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	var (
		f   filterFlags
		all bool
	)
	cmd := &cobra.Command{
		Use:   "remove COLLECTION",
		Short: "Delete records by id or filter",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			ids, w, wd, err := f.parse()
			if err != nil {
				return err
			}
			if ids == nil && w == nil && wd == nil && !all {
				return fmt.Errorf("no selection given; pass --all to delete every record")
			}
			col, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			deleted, err := col.Delete(ctx, bagel.DeleteRequest{IDs: ids, Where: w, WhereDocument: wd})
			if err != nil {
				return err
			}
			return a.printJSON(deleted)
		}),
	}
	f.register(cmd, true)
	cmd.Flags().BoolVar(&all, "all", false, "Delete every record when no filter is given")
	return cmd
}

func newAddImageCmd(opts *rootOptions) *cobra.Command {
	var metadata string
	cmd := &cobra.Command{
		Use:   "add-image COLLECTION FILE",
		Short: "Upload an image as a new record",
		Args:  cobra.ExactArgs(2),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			md, err := parseMetadata(metadata)
			if err != nil {
				return err
			}
			col, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			id, err := col.AddImage(ctx, args[1], md)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]string{"id": id})
		}),
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", `Image metadata as JSON (default: {"filename": <name>})`)
	return cmd
}

func newCreateIndexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-index COLLECTION",
		Short: "Build the vector index of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			col, err := a.client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			ok, err := col.CreateIndex(ctx)
			if err != nil {
				return err
			}
			return a.printJSON(ok)
		}),
	}
}
