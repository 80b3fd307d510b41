package entity

// SchemaType тип узла схемы ответа.
type SchemaType string

const (
	SchemaObject SchemaType = "object"
	SchemaString SchemaType = "string"
	SchemaArray  SchemaType = "array"
)

// Schema минимальное подмножество JSON Schema, которое понимают все провайдеры.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`

	// PropertyOrder порядок полей; в JSON не попадает, нужен для стабильной выдачи.
	PropertyOrder []string `json:"-"`
}

// IdentificationRequest запрос к модели: картинка, инструкция и схема ответа.
// Создаётся заново на каждый вызов и не переиспользуется.
type IdentificationRequest struct {
	Model   string
	Payload EncodedPayload
	Prompt  string
	Schema  *Schema
}
