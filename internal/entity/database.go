package entity

import "time"

// Database is a configured connection the assistant can store vectors in.
type Database struct {
	Name         string         `json:"name"`
	User         string         `json:"user"`
	Password     string         `json:"password,omitempty"`
	DSN          string         `json:"dsn"`
	Connected    bool           `json:"connected"`
	VectorStores []*VectorStore `json:"vector_stores,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type DatabaseUpdateRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
	DSN      string `json:"dsn"`
}

type ListDatabasesResponse struct {
	Databases []*Database `json:"databases"`
}

// VectorStore describes one embedding table.
type VectorStore struct {
	Alias          string `json:"alias"`
	Model          string `json:"model"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	DistanceMetric string `json:"distance_metric"`
	IndexType      string `json:"index_type"`
	Table          string `json:"vector_store,omitempty"`
}

type ListVectorStoresResponse struct {
	VectorStores []*VectorStore `json:"vector_stores"`
}

// UploadedFile is a document received for embedding.
type UploadedFile struct {
	Filename string
	Content  []byte
}

// Chunk is a piece of a document stored alongside its embedding.
type Chunk struct {
	Text   string
	Source string
}

// RetrievedDocument is a chunk returned by a similarity search.
type RetrievedDocument struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}

type EmbedResponse struct {
	Message     string `json:"message"`
	VectorStore string `json:"vector_store"`
	Files       int    `json:"files"`
	Chunks      int    `json:"chunks"`
}
