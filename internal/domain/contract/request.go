// Package contract описывает договор с мультимодальной моделью: какой запрос
// ей отправляется и как разбирается её ответ.
package contract

import (
	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
)

// DefaultModel модель, используемая, если в конфигурации не задана другая.
const DefaultModel = "gemini-2.5-flash"

// Prompt инструкция для модели. Правила применяются в порядке приоритета.
const Prompt = `
Analyze this image strictly.
1. If the image contains a human (person, face, selfie), you MUST identify it as category 'PERSON'. For persons, the name MUST be "` + entity.PersonName + `" and the description MUST be "` + entity.PersonDescription + `". Do not provide scientific names for persons.
2. If the image contains a plant (flower, tree, grass, fruit, vegetable), identify it as category 'PLANT'. Provide its common Chinese name, scientific name (Latin), a detailed description, care tips, and a fun fact.
3. If it is neither, classify as 'OTHER'.
`

const (
	FieldCategory       = "category"
	FieldName           = "name"
	FieldScientificName = "scientificName"
	FieldDescription    = "description"
	FieldCareTips       = "careTips"
	FieldFunFact        = "funFact"
)

// ResponseSchema возвращает новую копию схемы ответа.
func ResponseSchema() *entity.Schema {
	categories := make([]string, 0, 3)
	for _, c := range entity.Categories() {
		categories = append(categories, string(c))
	}

	return &entity.Schema{
		Type: entity.SchemaObject,
		Properties: map[string]*entity.Schema{
			FieldCategory: {
				Type:        entity.SchemaString,
				Enum:        categories,
				Description: "The category of the identified object.",
			},
			FieldName: {
				Type:        entity.SchemaString,
				Description: "The common name of the plant, or '" + entity.PersonName + "' if it is a person.",
			},
			FieldScientificName: {
				Type:        entity.SchemaString,
				Description: "The Latin scientific name (only for plants).",
			},
			FieldDescription: {
				Type:        entity.SchemaString,
				Description: "A detailed description in Chinese.",
			},
			FieldCareTips: {
				Type:        entity.SchemaArray,
				Items:       &entity.Schema{Type: entity.SchemaString},
				Description: "List of care tips (only for plants).",
			},
			FieldFunFact: {
				Type:        entity.SchemaString,
				Description: "An interesting fact about the plant.",
			},
		},
		Required: []string{FieldCategory, FieldName, FieldDescription},
		PropertyOrder: []string{
			FieldCategory,
			FieldName,
			FieldScientificName,
			FieldDescription,
			FieldCareTips,
			FieldFunFact,
		},
	}
}

// BuildRequest собирает запрос к модели. Функция чистая: без ввода-вывода,
// одинаковый вход даёт одинаковый запрос.
func BuildRequest(model string, payload entity.EncodedPayload) (entity.IdentificationRequest, error) {
	if payload.Empty() {
		return entity.IdentificationRequest{}, apperrors.New(apperrors.KindBadRequest, "contract.build_request", "image payload is empty")
	}
	if model == "" {
		model = DefaultModel
	}
	if payload.MediaType == "" {
		payload.MediaType = entity.MediaTypeJPEG
	}

	return entity.IdentificationRequest{
		Model:   model,
		Payload: payload,
		Prompt:  Prompt,
		Schema:  ResponseSchema(),
	}, nil
}
