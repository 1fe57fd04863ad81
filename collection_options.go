package bagel

// CollectionOption configures collection creation.
type CollectionOption func(*collectionConfig)

type collectionConfig struct {
	metadata       Metadata
	embeddingModel string
	userID         string
}

// WithMetadata attaches metadata to the new collection.
func WithMetadata(md Metadata) CollectionOption {
	return func(c *collectionConfig) {
		c.metadata = md
	}
}

// WithEmbeddingModel asks the service to embed documents with the named model.
func WithEmbeddingModel(model string) CollectionOption {
	return func(c *collectionConfig) {
		c.embeddingModel = model
	}
}

// WithOwner overrides the client's user id for this collection.
func WithOwner(userID string) CollectionOption {
	return func(c *collectionConfig) {
		c.userID = userID
	}
}
