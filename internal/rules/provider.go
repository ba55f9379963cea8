package rules

import (
	"browser-use-webui/internal/config"
	"browser-use-webui/internal/entity"
)

// ModelList derives the model dropdown from the selected provider. A known
// provider yields its model list with the first entry selected; anything else
// yields an empty list. Typed model names stay allowed either way.
func ModelList(table config.ModelTable, provider string) entity.ModelListResult {
	models, ok := table.Models(provider)
	if !ok || len(models) == 0 {
		return entity.ModelListResult{
			Choices:     []string{},
			Value:       entity.CustomModel{},
			AllowCustom: true,
		}
	}

	return entity.ModelListResult{
		Choices:     models,
		Value:       entity.KnownModel{ID: models[0]},
		AllowCustom: true,
	}
}

// ContextLengthVisible reports whether the context-length control is shown.
func ContextLengthVisible(provider string) bool {
	return provider == config.LocalProvider
}

// ModelListPatch turns a ModelList result into a component patch.
func ModelListPatch(res entity.ModelListResult) entity.Patch {
	return entity.Patch{}.
		WithChoices(res.Choices).
		WithAllowCustom(res.AllowCustom).
		WithValue(res.Value.ModelID())
}

func VisibilityPatch(visible bool) entity.Patch {
	return entity.Patch{}.WithVisible(visible)
}
