package perception

import (
	"context"
	"encoding/json"
	"fmt"

	"beeno/internal/types"
)

// MockTranslator echoes the input back as a console.log call. It never fails
// and needs no network, which makes it the backend for tests and offline use.
type MockTranslator struct{}

// NewMockTranslator creates a mock translator.
func NewMockTranslator() *MockTranslator { return &MockTranslator{} }

// Translate implements Translator.
func (m *MockTranslator) Translate(_ context.Context, req types.TranslateRequest) (*types.TranslateResult, error) {
	quoted, err := json.Marshal(req.Input)
	if err != nil {
		return nil, invalidResponse(ProviderMock, "quote input", err)
	}
	explanation := "mock translation"
	confidence := float32(0.99)
	tokens := uint32(8)
	return &types.TranslateResult{
		Code:            fmt.Sprintf("console.log(%s);", quoted),
		Explanation:     &explanation,
		Confidence:      &confidence,
		Tokens:          &tokens,
		RawProviderMeta: map[string]any{"provider": string(ProviderMock)},
	}, nil
}
