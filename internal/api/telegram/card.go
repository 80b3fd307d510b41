package telegram

import (
	"strings"

	"plant-id/internal/domain/entity"
)

// RenderCard формирует текст карточки результата.
// Для людей: бейдж «警告», без советов по уходу и фактов.
func RenderCard(result entity.Identification) string {
	var b strings.Builder

	badge := "✅ 识别成功"
	section := "简介"
	if result.Category() == entity.CategoryPerson {
		badge = "⚠️ 警告"
		section = "生物特征"
	}

	b.WriteString(result.Title())
	b.WriteString("  [")
	b.WriteString(badge)
	b.WriteString("]\n")

	plant, isPlant := result.(entity.PlantResult)
	if isPlant && plant.ScientificName != nil && *plant.ScientificName != "" {
		b.WriteString(*plant.ScientificName)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(section)
	b.WriteString("\n")
	b.WriteString(result.Summary())
	b.WriteString("\n")

	if !isPlant {
		return b.String()
	}

	if len(plant.CareTips) > 0 {
		b.WriteString("\n🌱 养护建议\n")
		for _, tip := range plant.CareTips {
			b.WriteString("• ")
			b.WriteString(tip)
			b.WriteString("\n")
		}
	}

	if plant.FunFact != nil && *plant.FunFact != "" {
		b.WriteString("\n💡 冷知识\n\"")
		b.WriteString(*plant.FunFact)
		b.WriteString("\"\n")
	}

	return b.String()
}
