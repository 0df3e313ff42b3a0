//go:build !production

package testutil

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/palemoky/trivia-rush/internal/content"
)

// MockProvider implements content.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Categories(ctx context.Context) ([]content.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]content.Category), args.Error(1)
}

func (m *MockProvider) Questions(ctx context.Context, categoryID uuid.UUID) ([]content.Question, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]content.Question), args.Error(1)
}

func (m *MockProvider) Answer(ctx context.Context, id uuid.UUID) (content.Answer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(content.Answer), args.Error(1)
}

func (m *MockProvider) AnswerByContent(ctx context.Context, questionID uuid.UUID, text string) (content.Answer, error) {
	args := m.Called(ctx, questionID, text)
	return args.Get(0).(content.Answer), args.Error(1)
}

// Bank builds a bank with the given number of categories and questions per
// category. Every question has answers "A".."D" and "A" is correct.
func Bank(categories, questions int) *content.Bank {
	defs := make([]content.CategoryDef, 0, categories)
	for c := range categories {
		cd := content.CategoryDef{Name: fmt.Sprintf("Category %d", c+1)}
		for q := range questions {
			cd.Questions = append(cd.Questions, content.QuestionDef{
				Question: fmt.Sprintf("Question %d.%d", c+1, q+1),
				Answers:  []string{"A", "B", "C", "D"},
				Correct:  "A",
			})
		}
		defs = append(defs, cd)
	}
	bank, err := content.NewBank(defs)
	if err != nil {
		panic(err)
	}
	return bank
}
