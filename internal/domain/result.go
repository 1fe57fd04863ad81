package domain

// Include names a field the service may return for records.
type Include string

// Include values accepted by get and query calls.
const (
	IncludeDocuments  Include = "documents"
	IncludeEmbeddings Include = "embeddings"
	IncludeMetadatas  Include = "metadatas"
	IncludeDistances  Include = "distances"
)

// DefaultTenant is the user id sent when the caller does not set one.
const DefaultTenant = "default_tenant"

// Cluster is a named server-side collection of records.
type Cluster struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// GetResult holds records returned by get and peek.
// Fields that were not included (or returned as null) are nil.
type GetResult struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
	Documents  []string         `json:"documents"`
}

// QueryResult holds nearest-neighbour matches, one inner slice per query vector.
type QueryResult struct {
	IDs        [][]string         `json:"ids"`
	Embeddings [][][]float32      `json:"embeddings"`
	Metadatas  [][]map[string]any `json:"metadatas"`
	Documents  [][]string         `json:"documents"`
	Distances  [][]float64        `json:"distances"`
}
