// Package bagel is a Go client for the BagelDB vector database.
//
// Every request payload is validated before it is sent: identifier lists
// must be non-empty and unique, metadata values must be strings or numbers,
// and where / where_document filters must follow the operator grammar.
//
//	emb, _ := bagel.NewOpenAIEmbedder(bagel.OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")})
//	client, _ := bagel.New(
//	    bagel.WithAPIKey(os.Getenv("BAGEL_API_KEY")),
//	    bagel.WithEmbedder(emb),
//	)
//	col, _ := client.GetOrCreateCollection(ctx, "docs")
//	_ = col.Add(ctx, bagel.AddRequest{
//	    IDs:       bagel.IDBatch{"a", "b"},
//	    Documents: bagel.DocumentBatch{"hello", "world"},
//	})
//	res, _ := col.Query(ctx, bagel.QueryRequest{
//	    QueryTexts: bagel.SingleDocument("greeting"),
//	    NResults:   5,
//	    Where:      bagel.Cmp("year", bagel.OpGte, 2020),
//	})
//
// Filters can also be built from decoded JSON with ParseWhere and
// ParseWhereDocument.
package bagel
