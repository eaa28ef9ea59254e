package types

// Metadata is a generic key-value store for entity metadata
type Metadata map[string]string
