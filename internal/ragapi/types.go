package ragapi

// AskRequest is the body of POST /api/rag/ask
type AskRequest struct {
	Question string `json:"question"`
}

// SourceDocument is a retrieved chunk cited by an answer
type SourceDocument struct {
	Source         string `json:"source"`
	ChunkID        string `json:"chunk_id"`
	ContentPreview string `json:"content_preview"`
}

// AskResponse is the answer to a single question
type AskResponse struct {
	Answer             string           `json:"answer"`
	Sources            []SourceDocument `json:"sources"`
	ConversationLength int              `json:"conversation_length"`
}

// DocumentsRequest is the body of the init-db and add-pdf endpoints.
// Paths are resolved on the backend host.
type DocumentsRequest struct {
	PDFPaths []string `json:"pdf_paths"`
}

// InitResponse reports the result of building a new knowledge base
type InitResponse struct {
	Status             string `json:"status"`
	Message            string `json:"message"`
	DocumentsProcessed int    `json:"documents_processed"`
	ChunksCreated      int    `json:"chunks_created"`
}

// AddResponse reports the result of adding documents to an existing knowledge base
type AddResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	NewDocumentsAdded int    `json:"new_documents_added"`
	TotalDocuments    int    `json:"total_documents"`
}

// errorBody is the backend's error payload
type errorBody struct {
	Detail string `json:"detail"`
}
