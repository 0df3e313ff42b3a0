package content

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// namespace for deterministic content ids, so a bank reloaded from the same
// file keeps its ids.
var namespace = uuid.MustParse("6f1c9a52-8f5e-4c55-bf0e-7d2a9f3b1e44")

// BankFile is the on-disk layout of a YAML question bank.
type BankFile struct {
	Categories []CategoryDef `yaml:"categories"`
}

// CategoryDef one category in a bank file
type CategoryDef struct {
	Name      string        `yaml:"name"`
	Questions []QuestionDef `yaml:"questions"`
}

// QuestionDef one question in a bank file. Correct must equal one of Answers.
type QuestionDef struct {
	Question string   `yaml:"question"`
	Answers  []string `yaml:"answers"`
	Correct  string   `yaml:"correct"`
}

// Bank is an immutable in-memory Provider.
type Bank struct {
	categories []Category
	questions  map[uuid.UUID][]Question // by category
	answers    map[uuid.UUID]Answer
	byQuestion map[uuid.UUID]Question
}

// LoadBank reads a YAML bank from path.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBank(data)
}

// ParseBank builds a bank from YAML.
func ParseBank(data []byte) (*Bank, error) {
	var file BankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}
	return NewBank(file.Categories)
}

// NewBank builds a bank from category definitions.
func NewBank(defs []CategoryDef) (*Bank, error) {
	b := &Bank{
		questions:  make(map[uuid.UUID][]Question),
		answers:    make(map[uuid.UUID]Answer),
		byQuestion: make(map[uuid.UUID]Question),
	}

	for _, cd := range defs {
		name := strings.TrimSpace(cd.Name)
		if name == "" {
			return nil, fmt.Errorf("category without name")
		}
		cat := Category{ID: uuid.NewSHA1(namespace, []byte("category/"+name)), Name: name}
		if _, dup := b.questions[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		b.categories = append(b.categories, cat)
		b.questions[cat.ID] = nil

		for i, qd := range cd.Questions {
			q, err := buildQuestion(cat, i, qd)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", name, err)
			}
			b.questions[cat.ID] = append(b.questions[cat.ID], q)
			b.byQuestion[q.ID] = q
			for _, a := range q.Answers {
				b.answers[a.ID] = a
			}
		}
	}
	return b, nil
}

func buildQuestion(cat Category, idx int, qd QuestionDef) (Question, error) {
	text := strings.TrimSpace(qd.Question)
	if text == "" {
		return Question{}, fmt.Errorf("question %d is empty", idx)
	}
	if len(qd.Answers) < 2 {
		return Question{}, fmt.Errorf("question %q needs at least two answers", text)
	}

	q := Question{
		ID:         uuid.NewSHA1(cat.ID, []byte(fmt.Sprintf("question/%d/%s", idx, text))),
		CategoryID: cat.ID,
		Content:    text,
	}
	for i, content := range qd.Answers {
		a := Answer{
			ID:      uuid.NewSHA1(q.ID, []byte(fmt.Sprintf("answer/%d", i))),
			Content: strings.TrimSpace(content),
		}
		q.Answers = append(q.Answers, a)
		if a.Content == strings.TrimSpace(qd.Correct) && q.CorrectAnswerID == uuid.Nil {
			q.CorrectAnswerID = a.ID
		}
	}
	if q.CorrectAnswerID == uuid.Nil {
		return Question{}, fmt.Errorf("question %q: correct answer %q is not among its answers", text, qd.Correct)
	}
	return q, nil
}

// Categories lists every category in file order.
func (b *Bank) Categories(_ context.Context) ([]Category, error) {
	return append([]Category(nil), b.categories...), nil
}

// Questions lists the questions of one category.
func (b *Bank) Questions(_ context.Context, categoryID uuid.UUID) ([]Question, error) {
	qs, ok := b.questions[categoryID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]Question(nil), qs...), nil
}

// Answer looks up an answer by id.
func (b *Bank) Answer(_ context.Context, id uuid.UUID) (Answer, error) {
	a, ok := b.answers[id]
	if !ok {
		return Answer{}, ErrNotFound
	}
	return a, nil
}

// AnswerByContent finds the answer of a question by its text.
func (b *Bank) AnswerByContent(_ context.Context, questionID uuid.UUID, content string) (Answer, error) {
	q, ok := b.byQuestion[questionID]
	if !ok {
		return Answer{}, ErrNotFound
	}
	for _, a := range q.Answers {
		if a.Content == content {
			return a, nil
		}
	}
	return Answer{}, ErrNotFound
}
