package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
)

const opParse = "contract.parse_result"

// ParseResult разбирает текст ответа модели и строит типизированный результат.
// Любое отклонение от схемы даёт ошибку вида KindSchema.
func ParseResult(text string) (entity.Identification, error) {
	body := stripCodeFence(text)
	if body == "" {
		return nil, apperrors.New(apperrors.KindSchema, opParse, "response is empty")
	}

	var doc entity.ResultDocument
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&doc); err != nil {
		return nil, apperrors.Wrap(apperrors.KindSchema, opParse, "response is not valid JSON", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, apperrors.New(apperrors.KindSchema, opParse, "unexpected data after JSON object")
	}

	if err := validate(doc); err != nil {
		return nil, err
	}

	switch doc.Category {
	case entity.CategoryPlant:
		return entity.PlantResult{
			Name:           doc.Name,
			Description:    doc.Description,
			ScientificName: doc.ScientificName,
			CareTips:       doc.CareTips,
			FunFact:        doc.FunFact,
		}, nil
	case entity.CategoryPerson:
		return entity.PersonResult{Name: doc.Name, Description: doc.Description}, nil
	default:
		return entity.OtherResult{Name: doc.Name, Description: doc.Description}, nil
	}
}

func validate(doc entity.ResultDocument) error {
	var missing []string
	if doc.Category == "" {
		missing = append(missing, FieldCategory)
	}
	if doc.Name == "" {
		missing = append(missing, FieldName)
	}
	if doc.Description == "" {
		missing = append(missing, FieldDescription)
	}
	if len(missing) > 0 {
		return apperrors.New(apperrors.KindSchema, opParse,
			fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	if !doc.Category.Valid() {
		return apperrors.New(apperrors.KindSchema, opParse,
			fmt.Sprintf("unknown category %q", doc.Category))
	}
	return nil
}

// stripCodeFence убирает обёртку ```json ... ```, которую добавляют
// некоторые OpenAI-совместимые серверы.
func stripCodeFence(text string) string {
	body := strings.TrimSpace(text)
	if !strings.HasPrefix(body, "```") {
		return body
	}

	body = strings.TrimPrefix(body, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
