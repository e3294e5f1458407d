package domain

// PortType is a named data category exchanged between node ports.
// Identity is structural-name based: two ports are compatible when their
// type names are equal, or when either side is TypeAny.
type PortType string

const (
	TypeAny            PortType = "any"
	TypeQuery          PortType = "query"
	TypeDocumentBatch  PortType = "document_batch"
	TypeChunkBatch     PortType = "chunk_batch"
	TypeEmbeddingBatch PortType = "embedding_batch"
	TypeRetrievedItems PortType = "retrieved_items"
	TypeChatMessages   PortType = "chat_messages"
	TypeToolCall       PortType = "tool_call"
	TypeToolResult     PortType = "tool_result"
)

// Compatible reports whether an output of type source may feed an input
// of type target.
func Compatible(source, target PortType) bool {
	if source == target {
		return true
	}
	return source == TypeAny || target == TypeAny
}
