// Package fakebagel is an in-memory stand-in for the BagelDB REST API used
// in tests. It validates payloads like the real service, runs exact L2
// nearest-neighbour search and records every request it receives.
package fakebagel

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/domain/validate"
	"github.com/bageldb/bagel-go/internal/domain/where"
	logpkg "github.com/bageldb/bagel-go/internal/logger"
	"github.com/bageldb/bagel-go/internal/metrics"
)

// Version is returned by GET /api/v1/version.
const Version = "0.4.0-fake"

// Options configures the fake server.
type Options struct {
	// APIKeys, when non-empty, enables authentication.
	APIKeys []string
	// Embedder embeds documents and query texts sent without embeddings.
	Embedder domain.Embedder
	Logger   *zap.Logger
	// Metrics, when set, records per-route request counts and latency.
	Metrics *metrics.HTTP
}

// Request is a recorded incoming request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server implements the BagelDB REST API in memory.
type Server struct {
	store    store
	embedder domain.Embedder
	logger   *zap.Logger
	router   chi.Router

	mu       sync.Mutex
	requests []Request
}

// New creates a fake server. Use Start for an httptest server or the
// Server itself as an http.Handler.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{embedder: opts.Embedder, logger: logger}

	r := chi.NewRouter()
	r.Use(opts.Metrics.Middleware())
	r.Use(s.recordRequests)
	r.Use(AuthMiddleware(opts.APIKeys))

	r.Get("/join_waitlist/{email}", s.joinWaitlist)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.heartbeat)
		r.Get("/version", s.version)
		r.Post("/reset", s.reset)
		r.Post("/persist", s.persist)

		r.Get("/clusters", s.listClusters)
		r.Post("/clusters", s.createCluster)
		r.Get("/clusters/{key}", s.getCluster)
		r.Delete("/clusters/{key}", s.deleteCluster)
		r.Put("/clusters/{key}", s.modifyCluster)
		r.Get("/clusters/{key}/count", s.count)
		r.Post("/clusters/{key}/create_index", s.createIndex)
		r.Post("/clusters/{key}/add", s.write(modeAdd))
		r.Post("/clusters/{key}/upsert", s.write(modeUpsert))
		r.Post("/clusters/{key}/update", s.write(modeUpdate))
		r.Post("/clusters/{key}/get", s.get)
		r.Post("/clusters/{key}/query", s.query)
		r.Post("/clusters/{key}/delete", s.delete)
		r.Post("/clusters/{key}/add_image", s.addImage)
	})
	s.router = r
	return s
}

// Start runs s on an httptest server.
func Start(opts Options) (*Server, *httptest.Server) {
	s := New(opts)
	return s, httptest.NewServer(s)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request whose path ends with suffix.
func (s *Server) LastRequest(suffix string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if strings.HasSuffix(s.requests[i].Path, suffix) {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

func (s *Server) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		logpkg.FromContext(r.Context()).Debug("Fake BagelDB request",
			zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) heartbeat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"nanosecond heartbeat": time.Now().UnixNano()})
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Version)
}

func (s *Server) reset(w http.ResponseWriter, _ *http.Request) {
	s.store.reset()
	writeJSON(w, http.StatusOK, true)
}

func (s *Server) persist(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, true)
}

func (s *Server) joinWaitlist(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "ValueError", "invalid email "+email)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "status": "joined"})
}

func (s *Server) listClusters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.list())
}

func (s *Server) createCluster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string         `json:"name"`
		Metadata       map[string]any `json:"metadata"`
		GetOrCreate    bool           `json:"get_or_create"`
		UserID         string         `json:"user_id"`
		EmbeddingModel *string        `json:"embedding_model"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "ValueError", "cluster name is required")
		return
	}
	if req.Metadata != nil {
		if _, err := validate.Metadata(req.Metadata); err != nil {
			handleError(w, err)
			return
		}
	}
	model := ""
	if req.EmbeddingModel != nil {
		model = *req.EmbeddingModel
	}
	c, err := s.store.create(req.Name, req.Metadata, req.GetOrCreate, req.UserID, model)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) getCluster(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.get(chi.URLParam(r, "key"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCluster(w http.ResponseWriter, r *http.Request) {
	if err := s.store.remove(chi.URLParam(r, "key")); err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) modifyCluster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName     *string        `json:"new_name"`
		NewMetadata map[string]any `json:"new_metadata"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.NewMetadata != nil {
		if _, err := validate.Metadata(req.NewMetadata); err != nil {
			handleError(w, err)
			return
		}
	}
	if err := s.store.modify(chi.URLParam(r, "key"), req.NewName, req.NewMetadata); err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) count(w http.ResponseWriter, r *http.Request) {
	var n int
	err := s.store.withCluster(chi.URLParam(r, "key"), func(c *cluster) error {
		n = len(c.records)
		return nil
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) createIndex(w http.ResponseWriter, r *http.Request) {
	err := s.store.withClusterName(chi.URLParam(r, "key"), func(c *cluster) error {
		c.indexed = true
		return nil
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, true)
}

type recordSet struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
	Documents  []string         `json:"documents"`
}

func (s *Server) write(mode writeMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var set recordSet
		if !decode(w, r, &set) {
			return
		}
		if err := s.checkRecordSet(r, &set, mode != modeUpdate); err != nil {
			handleError(w, err)
			return
		}
		err := s.store.withCluster(chi.URLParam(r, "key"), func(c *cluster) error {
			return c.write(mode, set)
		})
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, true)
	}
}

func (s *Server) checkRecordSet(r *http.Request, set *recordSet, requireContent bool) error {
	if _, err := validate.IDs(set.IDs); err != nil {
		return err
	}
	if set.Embeddings != nil {
		if _, err := validate.Embeddings(set.Embeddings); err != nil {
			return err
		}
	}
	if _, err := validate.Metadatas(set.Metadatas); err != nil {
		return err
	}
	if requireContent && set.Embeddings == nil && set.Documents == nil {
		return domain.InvalidArgumentf("either embeddings or documents are required")
	}
	if err := checkColumns(*set); err != nil {
		return err
	}
	if set.Embeddings == nil && set.Documents != nil && s.embedder != nil {
		res, err := s.embedder.Embed(r.Context(), set.Documents)
		if err != nil {
			s.logger.Warn("Server-side embedding failed", zap.Int("documents", len(set.Documents)), zap.Error(err))
			return err
		}
		set.Embeddings = res.Embeddings
	}
	return nil
}

// checkColumns rejects a present column whose length differs from ids.
// An empty but non-null column counts as present.
func checkColumns(set recordSet) error {
	n := len(set.IDs)
	switch {
	case set.Embeddings != nil && len(set.Embeddings) != n:
		return domain.InvalidArgumentf("expected %d embeddings, got %d", n, len(set.Embeddings))
	case set.Metadatas != nil && len(set.Metadatas) != n:
		return domain.InvalidArgumentf("expected %d metadatas, got %d", n, len(set.Metadatas))
	case set.Documents != nil && len(set.Documents) != n:
		return domain.InvalidArgumentf("expected %d documents, got %d", n, len(set.Documents))
	}
	return nil
}

type filterBody struct {
	IDs           []string       `json:"ids"`
	Where         map[string]any `json:"where"`
	WhereDocument map[string]any `json:"where_document"`
}

func (f filterBody) parse() (where.Expr, where.DocExpr, error) {
	if f.IDs != nil {
		if _, err := validate.IDs(f.IDs); err != nil {
			return nil, nil, err
		}
	}
	w, err := where.Parse(f.Where)
	if err != nil {
		return nil, nil, err
	}
	wd, err := where.ParseDocument(f.WhereDocument)
	if err != nil {
		return nil, nil, err
	}
	return w, wd, nil
}

func included(include []domain.Include, f domain.Include) bool {
	for _, i := range include {
		if i == f {
			return true
		}
	}
	return false
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	var req struct {
		filterBody
		Sort    *string          `json:"sort"`
		Limit   *int             `json:"limit"`
		Offset  *int             `json:"offset"`
		Include []domain.Include `json:"include"`
	}
	if !decode(w, r, &req) {
		return
	}
	wh, wd, err := req.parse()
	if err == nil {
		_, err = validate.Include(req.Include, false)
	}
	if err == nil && ((req.Limit != nil && *req.Limit < 0) || (req.Offset != nil && *req.Offset < 0)) {
		err = domain.InvalidArgumentf("limit and offset cannot be negative")
	}
	if err != nil {
		handleError(w, err)
		return
	}

	var res domain.GetResult
	err = s.store.withCluster(chi.URLParam(r, "key"), func(c *cluster) error {
		recs := c.match(req.IDs, wh, wd)
		if req.Sort != nil {
			sortRecords(recs, *req.Sort)
		}
		if req.Offset != nil {
			recs = recs[min(*req.Offset, len(recs)):]
		}
		if req.Limit != nil {
			recs = recs[:min(*req.Limit, len(recs))]
		}
		res = buildGetResult(recs, req.Include)
		return nil
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func buildGetResult(recs []*record, include []domain.Include) domain.GetResult {
	res := domain.GetResult{IDs: make([]string, len(recs))}
	if included(include, domain.IncludeEmbeddings) {
		res.Embeddings = make([][]float32, len(recs))
	}
	if included(include, domain.IncludeMetadatas) {
		res.Metadatas = make([]map[string]any, len(recs))
	}
	if included(include, domain.IncludeDocuments) {
		res.Documents = make([]string, len(recs))
	}
	for i, rec := range recs {
		res.IDs[i] = rec.id
		if res.Embeddings != nil {
			res.Embeddings[i] = rec.embedding
		}
		if res.Metadatas != nil {
			res.Metadatas[i] = rec.metadata
		}
		if res.Documents != nil && rec.document != nil {
			res.Documents[i] = *rec.document
		}
	}
	return res
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		filterBody
		QueryEmbeddings [][]float32      `json:"query_embeddings"`
		QueryTexts      []string         `json:"query_texts"`
		NResults        int              `json:"n_results"`
		Include         []domain.Include `json:"include"`
	}
	if !decode(w, r, &req) {
		return
	}
	wh, wd, err := req.parse()
	if err == nil {
		_, err = validate.Include(req.Include, true)
	}
	if err == nil {
		_, err = validate.NResults(req.NResults)
	}
	if err == nil && req.QueryEmbeddings == nil {
		switch {
		case len(req.QueryTexts) == 0:
			err = domain.InvalidArgumentf("query embeddings or query texts are required")
		case s.embedder == nil:
			err = domain.InvalidArgumentf("server has no embedder for query texts")
		default:
			var res domain.EmbeddingResult
			res, err = s.embedder.Embed(r.Context(), req.QueryTexts)
			req.QueryEmbeddings = res.Embeddings
		}
	}
	if err == nil {
		_, err = validate.Embeddings(req.QueryEmbeddings)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	var res domain.QueryResult
	err = s.store.withCluster(chi.URLParam(r, "key"), func(c *cluster) error {
		recs := c.match(req.IDs, wh, wd)
		for _, q := range req.QueryEmbeddings {
			hits, err := nearest(recs, q, req.NResults)
			if err != nil {
				return err
			}
			appendQueryHits(&res, hits, req.Include)
		}
		return nil
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func appendQueryHits(res *domain.QueryResult, hits []scored, include []domain.Include) {
	recs := make([]*record, len(hits))
	dists := make([]float64, len(hits))
	for i, h := range hits {
		recs[i] = h.rec
		dists[i] = h.dist
	}
	g := buildGetResult(recs, include)
	res.IDs = append(res.IDs, g.IDs)
	if g.Embeddings != nil {
		res.Embeddings = append(res.Embeddings, g.Embeddings)
	}
	if g.Metadatas != nil {
		res.Metadatas = append(res.Metadatas, g.Metadatas)
	}
	if g.Documents != nil {
		res.Documents = append(res.Documents, g.Documents)
	}
	if included(include, domain.IncludeDistances) {
		res.Distances = append(res.Distances, dists)
	}
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	var req filterBody
	if !decode(w, r, &req) {
		return
	}
	wh, wd, err := req.parse()
	if err != nil {
		handleError(w, err)
		return
	}
	var deleted []string
	err = s.store.withCluster(chi.URLParam(r, "key"), func(c *cluster) error {
		deleted = c.remove(req.IDs, wh, wd)
		return nil
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) addImage(w http.ResponseWriter, r *http.Request) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		writeError(w, http.StatusBadRequest, "ValueError", "expected multipart/form-data")
		return
	}

	var (
		imageName string
		imageSize int
		data      struct {
			Metadata []map[string]any `json:"metadata"`
			IDs      []string         `json:"ids"`
		}
	)
	mr := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "ValueError", err.Error())
			return
		}
		body, _ := io.ReadAll(part)
		switch part.FormName() {
		case "image":
			imageName = part.FileName()
			imageSize = len(body)
		case "data":
			if err := json.Unmarshal(body, &data); err != nil {
				writeError(w, http.StatusBadRequest, "ValueError", "invalid data part: "+err.Error())
				return
			}
		}
	}
	if imageName == "" || imageSize == 0 {
		writeError(w, http.StatusBadRequest, "ValueError", "image part is required")
		return
	}
	if _, err := validate.IDs(data.IDs); err != nil {
		handleError(w, err)
		return
	}
	if _, err := validate.Metadatas(data.Metadata); err != nil {
		handleError(w, err)
		return
	}

	docs := make([]string, len(data.IDs))
	for i := range docs {
		docs[i] = imageName
	}
	set := recordSet{IDs: data.IDs, Metadatas: data.Metadata, Documents: docs}
	if err := checkColumns(set); err != nil {
		handleError(w, err)
		return
	}
	err = s.store.withCluster(chi.URLParam(r, "key"), func(c *cluster) error {
		return c.write(modeAdd, set)
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, true)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "ValueError", "invalid request body: "+err.Error())
		return false
	}
	return true
}

// handleError maps domain errors onto the service's error bodies.
func handleError(w http.ResponseWriter, err error) {
	var dupErr *domain.DuplicateIDError
	switch {
	case errors.As(err, &dupErr):
		writeError(w, http.StatusBadRequest, "DuplicateID", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "ValueError", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, map[string]string{"error": name, "message": message})
}
