package fakebagel

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/domain/scalar"
	"github.com/bageldb/bagel-go/internal/domain/where"
)

var (
	errClusterExists = fmt.Errorf("cluster already exists: %w", domain.ErrInvalidArgument)
	errNoEmbedding   = fmt.Errorf("record has no embedding: %w", domain.ErrInvalidArgument)
)

type record struct {
	id        string
	embedding []float32
	metadata  map[string]any
	document  *string
}

type cluster struct {
	domain.Cluster
	userID  string
	model   string
	records []*record
	indexed bool
}

func (c *cluster) find(id string) (int, *record) {
	for i, r := range c.records {
		if r.id == id {
			return i, r
		}
	}
	return -1, nil
}

// store is the in-memory state behind the fake API.
type store struct {
	mu       sync.Mutex
	clusters []*cluster
}

func (s *store) byName(name string) *cluster {
	for _, c := range s.clusters {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (s *store) byID(id string) *cluster {
	for _, c := range s.clusters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *store) list() []domain.Cluster {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Cluster, len(s.clusters))
	for i, c := range s.clusters {
		out[i] = c.Cluster
	}
	return out
}

func (s *store) create(name string, md map[string]any, getOrCreate bool, userID, model string) (domain.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.byName(name); c != nil {
		if getOrCreate {
			return c.Cluster, nil
		}
		return domain.Cluster{}, fmt.Errorf("cluster %s: %w", name, errClusterExists)
	}
	c := &cluster{
		Cluster: domain.Cluster{ID: uuid.NewString(), Name: name, Metadata: md},
		userID:  userID,
		model:   model,
	}
	s.clusters = append(s.clusters, c)
	return c.Cluster, nil
}

func (s *store) get(name string) (domain.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byName(name)
	if c == nil {
		return domain.Cluster{}, fmt.Errorf("cluster %s: %w", name, domain.ErrNotFound)
	}
	return c.Cluster, nil
}

func (s *store) remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clusters {
		if c.Name == name {
			s.clusters = slices.Delete(s.clusters, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("cluster %s: %w", name, domain.ErrNotFound)
}

func (s *store) modify(id string, newName *string, newMD map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byID(id)
	if c == nil {
		return fmt.Errorf("cluster %s: %w", id, domain.ErrNotFound)
	}
	if newName != nil {
		if other := s.byName(*newName); other != nil && other != c {
			return fmt.Errorf("cluster %s: %w", *newName, errClusterExists)
		}
		c.Name = *newName
	}
	if newMD != nil {
		c.Metadata = newMD
	}
	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters = nil
}

// withCluster runs fn under the lock on the cluster with the given id.
func (s *store) withCluster(id string, fn func(c *cluster) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byID(id)
	if c == nil {
		return fmt.Errorf("cluster %s: %w", id, domain.ErrNotFound)
	}
	return fn(c)
}

func (s *store) withClusterName(name string, fn func(c *cluster) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byName(name)
	if c == nil {
		return fmt.Errorf("cluster %s: %w", name, domain.ErrNotFound)
	}
	return fn(c)
}

// writeMode selects add, upsert or update semantics.
type writeMode int

const (
	modeAdd writeMode = iota
	modeUpsert
	modeUpdate
)

func (c *cluster) write(mode writeMode, set recordSet) error {
	if mode == modeAdd {
		var dups []string
		for _, id := range set.IDs {
			if _, r := c.find(id); r != nil {
				dups = append(dups, id)
			}
		}
		if len(dups) > 0 {
			return domain.NewDuplicateIDError(dups)
		}
	}
	if mode == modeUpdate {
		for _, id := range set.IDs {
			if _, r := c.find(id); r == nil {
				return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
			}
		}
	}

	for i, id := range set.IDs {
		_, r := c.find(id)
		if r == nil {
			r = &record{id: id}
			c.records = append(c.records, r)
		}
		if set.Embeddings != nil {
			r.embedding = set.Embeddings[i]
		}
		if set.Metadatas != nil {
			r.metadata = set.Metadatas[i]
		}
		if set.Documents != nil {
			doc := set.Documents[i]
			r.document = &doc
		}
	}
	return nil
}

func (c *cluster) match(ids []string, w where.Expr, wd where.DocExpr) []*record {
	var out []*record
	for _, r := range c.records {
		if ids != nil && !slices.Contains(ids, r.id) {
			continue
		}
		if !where.Match(w, r.metadata) {
			continue
		}
		if wd != nil && (r.document == nil || !where.MatchDocument(wd, *r.document)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (c *cluster) remove(ids []string, w where.Expr, wd where.DocExpr) []string {
	doomed := c.match(ids, w, wd)
	deleted := make([]string, 0, len(doomed))
	for _, r := range doomed {
		deleted = append(deleted, r.id)
	}
	c.records = slices.DeleteFunc(c.records, func(r *record) bool {
		return slices.Contains(deleted, r.id)
	})
	return deleted
}

// sortRecords orders records by a metadata field: numbers before strings,
// records missing the field last.
func sortRecords(recs []*record, field string) {
	slices.SortStableFunc(recs, func(a, b *record) int {
		av, aok := a.metadata[field]
		bv, bok := b.metadata[field]
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		af, afok := scalar.Float(av)
		bf, bfok := scalar.Float(bv)
		switch {
		case afok && bfok:
			return cmp.Compare(af, bf)
		case afok:
			return -1
		case bfok:
			return 1
		}
		as, _ := av.(string)
		bs, _ := bv.(string)
		return cmp.Compare(as, bs)
	})
}

type scored struct {
	rec  *record
	dist float64
}

// nearest returns the n records closest to q by squared L2 distance.
func nearest(recs []*record, q []float32, n int) ([]scored, error) {
	out := make([]scored, 0, len(recs))
	for _, r := range recs {
		if r.embedding == nil {
			return nil, fmt.Errorf("%s: %w", r.id, errNoEmbedding)
		}
		if len(r.embedding) != len(q) {
			return nil, domain.InvalidArgumentf("embedding dimension %d does not match query dimension %d",
				len(r.embedding), len(q))
		}
		var d float64
		for i := range q {
			diff := float64(r.embedding[i]) - float64(q[i])
			d += diff * diff
		}
		out = append(out, scored{rec: r, dist: d})
	}
	slices.SortStableFunc(out, func(a, b scored) int { return cmp.Compare(a.dist, b.dist) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
