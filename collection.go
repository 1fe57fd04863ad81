package bagel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/domain/validate"
	"github.com/bageldb/bagel-go/internal/domain/where"
)

const (
	defaultNResults = 10
	defaultPeek     = 10
)

var (
	defaultGetInclude   = []Include{IncludeMetadatas, IncludeDocuments}
	defaultQueryInclude = []Include{IncludeMetadatas, IncludeDocuments, IncludeDistances}
	peekInclude         = []Include{IncludeEmbeddings, IncludeDocuments, IncludeMetadatas}
)

// Collection is a handle to a server-side collection ("cluster").
// Handles are cheap; Modify updates Name and Metadata in place and is not
// safe to call concurrently with other uses of the same handle.
type Collection struct {
	client *Client

	ID       string
	Name     string
	Metadata Metadata
}

// AddRequest carries records for Add and Upsert. IDs and either Embeddings
// or Documents are required; every present list must be as long as IDs.
type AddRequest struct {
	IDs        IDInput
	Embeddings VectorInput
	Metadatas  MetadataInput
	Documents  DocumentInput
	// SkipIndex disables incremental indexing; call CreateIndex afterwards.
	SkipIndex bool
}

// UpdateRequest carries records for Update. Only IDs are required.
type UpdateRequest struct {
	IDs        IDInput
	Embeddings VectorInput
	Metadatas  MetadataInput
	Documents  DocumentInput
}

// GetRequest selects records. All fields are optional.
type GetRequest struct {
	IDs           IDInput
	Where         Where
	WhereDocument WhereDocument
	Sort          string
	Limit         int
	Offset        int
	// Page (1-based) and PageSize, when both set, override Limit and Offset.
	Page     int
	PageSize int
	// Include defaults to metadatas and documents. Distances are not allowed.
	Include []Include
}

// QueryRequest finds nearest neighbours. Exactly one of QueryEmbeddings and
// QueryTexts is required.
type QueryRequest struct {
	QueryEmbeddings VectorInput
	QueryTexts      DocumentInput
	// NResults defaults to 10.
	NResults      int
	Where         Where
	WhereDocument WhereDocument
	// Include defaults to metadatas, documents and distances.
	Include []Include
}

// DeleteRequest selects records to delete. With no fields set every record
// in the collection is deleted.
type DeleteRequest struct {
	IDs           IDInput
	Where         Where
	WhereDocument WhereDocument
}

func (c *Collection) path(suffix string) string {
	return "/clusters/" + url.PathEscape(c.ID) + suffix
}

// Count returns the number of records.
func (c *Collection) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.client.rest.Do(ctx, "count", http.MethodGet, c.path("/count"), nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Modify renames the collection and/or replaces its metadata. Empty name
// and nil metadata leave the current values.
func (c *Collection) Modify(ctx context.Context, name string, metadata Metadata) error {
	if metadata != nil {
		if _, err := validate.Metadata(metadata); err != nil {
			return err
		}
	}
	body := struct {
		NewMetadata map[string]any `json:"new_metadata"`
		NewName     *string        `json:"new_name"`
	}{NewMetadata: metadata}
	if name != "" {
		body.NewName = &name
	}
	if err := c.client.rest.Do(ctx, "modify", http.MethodPut, c.path(""), body, nil); err != nil {
		return err
	}
	if name != "" {
		c.Name = name
	}
	if metadata != nil {
		c.Metadata = metadata
	}
	return nil
}

// CreateIndex builds the collection's vector index.
func (c *Collection) CreateIndex(ctx context.Context) (bool, error) {
	var ok bool
	p := "/clusters/" + url.PathEscape(c.Name) + "/create_index"
	if err := c.client.rest.Do(ctx, "create_index", http.MethodPost, p, nil, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

type recordSet struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
	Documents  []string         `json:"documents"`
}

type addBody struct {
	recordSet
	IncrementIndex bool `json:"increment_index"`
}

// Add inserts records. Documents without embeddings are embedded with the
// client's embedder when one is configured.
func (c *Collection) Add(ctx context.Context, req AddRequest) error {
	return c.write(ctx, "add", "/add", req)
}

// Upsert inserts records or replaces existing ones with the same ids.
func (c *Collection) Upsert(ctx context.Context, req AddRequest) error {
	return c.write(ctx, "upsert", "/upsert", req)
}

func (c *Collection) write(ctx context.Context, op, suffix string, req AddRequest) error {
	set, err := c.prepareRecords(ctx, req.IDs, req.Embeddings, req.Metadatas, req.Documents, true)
	if err != nil {
		return err
	}
	body := addBody{recordSet: set, IncrementIndex: !req.SkipIndex}
	return c.client.rest.Do(ctx, op, http.MethodPost, c.path(suffix), body, nil)
}

// Update changes embeddings, metadata or documents of existing records.
func (c *Collection) Update(ctx context.Context, req UpdateRequest) error {
	set, err := c.prepareRecords(ctx, req.IDs, req.Embeddings, req.Metadatas, req.Documents, false)
	if err != nil {
		return err
	}
	return c.client.rest.Do(ctx, "update", http.MethodPost, c.path("/update"), set, nil)
}

// prepareRecords validates a column-oriented record set and fills in
// embeddings for documents when an embedder is configured.
func (c *Collection) prepareRecords(
	ctx context.Context,
	idsIn IDInput, embIn VectorInput, mdIn MetadataInput, docIn DocumentInput,
	requireContent bool,
) (recordSet, error) {
	if idsIn == nil {
		return recordSet{}, domain.InvalidArgumentf("expected ids to be a non-empty list, got none")
	}
	ids, err := validate.IDs(idsIn.Many())
	if err != nil {
		return recordSet{}, err
	}
	set := recordSet{IDs: ids}

	if embIn != nil {
		if set.Embeddings, err = validate.Embeddings(embIn.Many()); err != nil {
			return recordSet{}, err
		}
	}
	if mdIn != nil {
		if set.Metadatas, err = validate.Metadatas(mdIn.Many()); err != nil {
			return recordSet{}, err
		}
	}
	if docIn != nil {
		set.Documents = docIn.Many()
	}

	if requireContent && set.Embeddings == nil && set.Documents == nil {
		return recordSet{}, domain.InvalidArgumentf("you must provide either embeddings or documents, or both")
	}
	if err := checkLength("embeddings", set.Embeddings != nil, len(set.Embeddings), len(ids)); err != nil {
		return recordSet{}, err
	}
	if err := checkLength("metadatas", set.Metadatas != nil, len(set.Metadatas), len(ids)); err != nil {
		return recordSet{}, err
	}
	if err := checkLength("documents", set.Documents != nil, len(set.Documents), len(ids)); err != nil {
		return recordSet{}, err
	}

	if set.Embeddings == nil && set.Documents != nil && c.client.embedder != nil {
		if set.Embeddings, err = c.client.Embed(ctx, set.Documents); err != nil {
			return recordSet{}, err
		}
	}
	return set, nil
}

func checkLength(field string, present bool, n, want int) error {
	if present && n != want {
		return domain.InvalidArgumentf("number of %s (%d) must match number of ids (%d)", field, n, want)
	}
	return nil
}

type getBody struct {
	IDs           []string  `json:"ids"`
	Where         any       `json:"where"`
	Sort          *string   `json:"sort"`
	Limit         *int      `json:"limit"`
	Offset        *int      `json:"offset"`
	WhereDocument any       `json:"where_document"`
	Include       []Include `json:"include"`
}

// Get returns records matching the request.
func (c *Collection) Get(ctx context.Context, req GetRequest) (*GetResult, error) {
	body, err := buildGetBody(req)
	if err != nil {
		return nil, err
	}
	var res GetResult
	if err := c.client.rest.Do(ctx, "get", http.MethodPost, c.path("/get"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func buildGetBody(req GetRequest) (getBody, error) {
	var body getBody
	var err error

	if req.IDs != nil {
		if body.IDs, err = validate.IDs(req.IDs.Many()); err != nil {
			return getBody{}, err
		}
	}
	if body.Where, err = whereJSON(req.Where); err != nil {
		return getBody{}, err
	}
	if body.WhereDocument, err = whereDocumentJSON(req.WhereDocument); err != nil {
		return getBody{}, err
	}

	include := req.Include
	if include == nil {
		include = defaultGetInclude
	}
	if body.Include, err = validate.Include(include, false); err != nil {
		return getBody{}, err
	}

	if req.Limit < 0 || req.Offset < 0 || req.Page < 0 || req.PageSize < 0 {
		return getBody{}, domain.InvalidArgumentf("limit, offset, page and page size must not be negative")
	}
	if (req.Page > 0) != (req.PageSize > 0) {
		return getBody{}, domain.InvalidArgumentf("page and page size must be set together")
	}

	limit, offset := req.Limit, req.Offset
	if req.Page > 0 {
		offset = (req.Page - 1) * req.PageSize
		limit = req.PageSize
	}
	if limit > 0 {
		body.Limit = &limit
	}
	if offset > 0 {
		body.Offset = &offset
	}
	if req.Sort != "" {
		body.Sort = &req.Sort
	}
	return body, nil
}

// Peek returns up to n records with embeddings, documents and metadata.
// n <= 0 means 10.
func (c *Collection) Peek(ctx context.Context, n int) (*GetResult, error) {
	if n <= 0 {
		n = defaultPeek
	}
	return c.Get(ctx, GetRequest{Limit: n, Include: peekInclude})
}

type queryBody struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Where           any         `json:"where"`
	WhereDocument   any         `json:"where_document"`
	Include         []Include   `json:"include"`
	QueryTexts      []string    `json:"query_texts"`
}

// Query returns the NResults nearest records for each query. Query texts
// are embedded client-side when the client has an embedder.
func (c *Collection) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	if (req.QueryEmbeddings == nil) == (req.QueryTexts == nil) {
		return nil, domain.InvalidArgumentf("you must provide either query embeddings or query texts, but not both")
	}

	var body queryBody
	var err error

	if req.QueryEmbeddings != nil {
		if body.QueryEmbeddings, err = validate.Embeddings(req.QueryEmbeddings.Many()); err != nil {
			return nil, err
		}
	} else {
		texts := req.QueryTexts.Many()
		if len(texts) == 0 {
			return nil, domain.InvalidArgumentf("expected query texts to be a non-empty list")
		}
		if c.client.embedder != nil {
			if body.QueryEmbeddings, err = c.client.Embed(ctx, texts); err != nil {
				return nil, err
			}
		} else {
			body.QueryTexts = texts
		}
	}

	n := req.NResults
	if n == 0 {
		n = defaultNResults
	}
	if body.NResults, err = validate.NResults(n); err != nil {
		return nil, err
	}
	if body.Where, err = whereJSON(req.Where); err != nil {
		return nil, err
	}
	if body.WhereDocument, err = whereDocumentJSON(req.WhereDocument); err != nil {
		return nil, err
	}
	include := req.Include
	if include == nil {
		include = defaultQueryInclude
	}
	if body.Include, err = validate.Include(include, true); err != nil {
		return nil, err
	}

	var res QueryResult
	if err := c.client.rest.Do(ctx, "query", http.MethodPost, c.path("/query"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Delete removes matching records and returns their ids.
func (c *Collection) Delete(ctx context.Context, req DeleteRequest) ([]string, error) {
	body := struct {
		Where         any      `json:"where"`
		IDs           []string `json:"ids"`
		WhereDocument any      `json:"where_document"`
	}{}
	var err error
	if req.IDs != nil {
		if body.IDs, err = validate.IDs(req.IDs.Many()); err != nil {
			return nil, err
		}
	}
	if body.Where, err = whereJSON(req.Where); err != nil {
		return nil, err
	}
	if body.WhereDocument, err = whereDocumentJSON(req.WhereDocument); err != nil {
		return nil, err
	}

	var deleted []string
	if err := c.client.rest.Do(ctx, "delete", http.MethodPost, c.path("/delete"), body, &deleted); err != nil {
		return nil, err
	}
	return deleted, nil
}

// AddImage uploads an image file and returns the generated record id.
// Metadata defaults to {"filename": <base name>}.
func (c *Collection) AddImage(ctx context.Context, filename string, metadata Metadata) (string, error) {
	f, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	return c.AddImageReader(ctx, filepath.Base(filename), f, metadata)
}

// AddImageReader is AddImage with the image content read from r.
func (c *Collection) AddImageReader(ctx context.Context, name string, r io.Reader, metadata Metadata) (string, error) {
	if name == "" {
		return "", domain.InvalidArgumentf("expected image name to be non-empty")
	}
	if metadata == nil {
		metadata = Metadata{"filename": name}
	}
	if _, err := validate.Metadata(metadata); err != nil {
		return "", err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	id := uuid.NewString()
	data, err := json.Marshal(struct {
		Metadata       []map[string]any `json:"metadata"`
		IDs            []string         `json:"ids"`
		IncrementIndex bool             `json:"increment_index"`
	}{[]map[string]any{metadata}, []string{id}, true})
	if err != nil {
		return "", fmt.Errorf("encode image data: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	imgHeader := textproto.MIMEHeader{}
	imgHeader.Set("Content-Disposition",
		mime.FormatMediaType("form-data", map[string]string{"name": "image", "filename": name}))
	imgHeader.Set("Content-Type", imageContentType(name))
	part, err := mw.CreatePart(imgHeader)
	if err != nil {
		return "", fmt.Errorf("create image part: %w", err)
	}
	enc := base64.NewEncoder(base64.StdEncoding, part)
	if _, err := enc.Write(raw); err != nil {
		return "", fmt.Errorf("write image part: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("write image part: %w", err)
	}

	dataHeader := textproto.MIMEHeader{}
	dataHeader.Set("Content-Disposition", `form-data; name="data"`)
	dataHeader.Set("Content-Type", "application/json")
	part, err = mw.CreatePart(dataHeader)
	if err != nil {
		return "", fmt.Errorf("create data part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write data part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	err = c.client.rest.DoRaw(ctx, "add_image", http.MethodPost, c.path("/add_image"),
		&buf, mw.FormDataContentType(), nil)
	if err != nil {
		return "", err
	}
	return id, nil
}

func imageContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "image/jpeg"
}

// whereJSON validates a filter and returns its wire form; nil encodes as {}.
func whereJSON(e Where) (any, error) {
	if e == nil {
		return struct{}{}, nil
	}
	if err := where.Validate(e); err != nil {
		return nil, err
	}
	return e, nil
}

func whereDocumentJSON(e WhereDocument) (any, error) {
	if e == nil {
		return struct{}{}, nil
	}
	if err := where.ValidateDocument(e); err != nil {
		return nil, err
	}
	return e, nil
}
