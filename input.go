package bagel

// IDInput is a SingleID or an IDBatch.
type IDInput interface {
	Many() []string
	isIDInput()
}

// SingleID is one identifier.
type SingleID string

// IDBatch is a list of identifiers.
type IDBatch []string

// Many returns the id as a one-element batch.
func (s SingleID) Many() []string { return []string{string(s)} }

// Many returns the batch unchanged.
func (b IDBatch) Many() []string { return b }

func (SingleID) isIDInput() {}
func (IDBatch) isIDInput()  {}

// VectorInput is a SingleVector or a VectorBatch.
type VectorInput interface {
	Many() [][]float32
	isVectorInput()
}

// SingleVector is one embedding.
type SingleVector []float32

// VectorBatch is a list of embeddings.
type VectorBatch [][]float32

// Many returns the vector as a one-element batch.
func (v SingleVector) Many() [][]float32 { return [][]float32{v} }

// Many returns the batch unchanged.
func (b VectorBatch) Many() [][]float32 { return b }

func (SingleVector) isVectorInput() {}
func (VectorBatch) isVectorInput()  {}

// MetadataInput is a SingleMetadata or a MetadataBatch.
type MetadataInput interface {
	Many() []map[string]any
	isMetadataInput()
}

// SingleMetadata is one metadata record.
type SingleMetadata map[string]any

// MetadataBatch is a list of metadata records.
type MetadataBatch []map[string]any

// Many returns the record as a one-element batch.
func (m SingleMetadata) Many() []map[string]any { return []map[string]any{m} }

// Many returns the batch unchanged.
func (b MetadataBatch) Many() []map[string]any { return b }

func (SingleMetadata) isMetadataInput() {}
func (MetadataBatch) isMetadataInput()  {}

// DocumentInput is a SingleDocument or a DocumentBatch.
type DocumentInput interface {
	Many() []string
	isDocumentInput()
}

// SingleDocument is one document text.
type SingleDocument string

// DocumentBatch is a list of document texts.
type DocumentBatch []string

// Many returns the document as a one-element batch.
func (d SingleDocument) Many() []string { return []string{string(d)} }

// Many returns the batch unchanged.
func (b DocumentBatch) Many() []string { return b }

func (SingleDocument) isDocumentInput() {}
func (DocumentBatch) isDocumentInput()  {}
