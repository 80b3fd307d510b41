package entity

import "encoding/json"

// Category категория распознанного объекта.
type Category string

const (
	CategoryPlant  Category = "PLANT"
	CategoryPerson Category = "PERSON"
	CategoryOther  Category = "OTHER"
)

// Categories все допустимые категории в порядке объявления в схеме.
func Categories() []Category {
	return []Category{CategoryPlant, CategoryPerson, CategoryOther}
}

// Valid проверяет, что категория известна.
func (c Category) Valid() bool {
	switch c {
	case CategoryPlant, CategoryPerson, CategoryOther:
		return true
	}
	return false
}

const (
	// PersonName и PersonDescription фиксированный ответ для людей на фото.
	PersonName        = "大笨驴"
	PersonDescription = "这是一头大笨驴"
)

// Identification результат распознавания. Реализации: PlantResult,
// PersonResult и OtherResult; у каждой только свои поля.
type Identification interface {
	Category() Category
	Title() string
	Summary() string

	identification()
}

// PlantResult растение. Необязательные поля равны nil, если модель их не вернула.
type PlantResult struct {
	Name           string
	Description    string
	ScientificName *string
	CareTips       []string
	FunFact        *string
}

// PersonResult человек на фото.
type PersonResult struct {
	Name        string
	Description string
}

// OtherResult всё остальное.
type OtherResult struct {
	Name        string
	Description string
}

func (PlantResult) Category() Category  { return CategoryPlant }
func (PersonResult) Category() Category { return CategoryPerson }
func (OtherResult) Category() Category  { return CategoryOther }

func (r PlantResult) Title() string  { return r.Name }
func (r PersonResult) Title() string { return r.Name }
func (r OtherResult) Title() string  { return r.Name }

func (r PlantResult) Summary() string  { return r.Description }
func (r PersonResult) Summary() string { return r.Description }
func (r OtherResult) Summary() string  { return r.Description }

func (PlantResult) identification()  {}
func (PersonResult) identification() {}
func (OtherResult) identification()  {}

// ResultDocument плоское JSON-представление результата, общее для ответа
// модели, ответа прокси и клиента.
type ResultDocument struct {
	Category       Category `json:"category"`
	Name           string   `json:"name"`
	ScientificName *string  `json:"scientificName,omitempty"`
	Description    string   `json:"description"`
	CareTips       []string `json:"careTips,omitempty"`
	FunFact        *string  `json:"funFact,omitempty"`
}

// Document переводит результат в плоскую форму.
func Document(id Identification) ResultDocument {
	doc := ResultDocument{
		Category:    id.Category(),
		Name:        id.Title(),
		Description: id.Summary(),
	}
	if plant, ok := id.(PlantResult); ok {
		doc.ScientificName = plant.ScientificName
		doc.CareTips = plant.CareTips
		doc.FunFact = plant.FunFact
	}
	return doc
}

func (r PlantResult) MarshalJSON() ([]byte, error)  { return json.Marshal(Document(r)) }
func (r PersonResult) MarshalJSON() ([]byte, error) { return json.Marshal(Document(r)) }
func (r OtherResult) MarshalJSON() ([]byte, error)  { return json.Marshal(Document(r)) }
