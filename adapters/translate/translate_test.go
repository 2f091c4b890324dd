package translate_test

import (
	"github.com/voxrelay/server/adapters/translate"
	"github.com/voxrelay/server/domain/repositories"
)

var _ repositories.Translator = &translate.GoogleTranslator{}
var _ repositories.Translator = &translate.GeminiTranslator{}
var _ repositories.Translator = &translate.MockTranslator{}
