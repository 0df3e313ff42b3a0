package content

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type capturedQuery struct {
	sql  string
	vars []any
}

// dryRunStore builds statements without a database and records every query.
func dryRunStore(t *testing.T) (*Store, func() []capturedQuery) {
	t.Helper()
	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		DSN: "host=127.0.0.1 user=trivia dbname=trivia sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	var (
		mu  sync.Mutex
		got []capturedQuery
	)
	err = db.Callback().Query().After("gorm:query").Register("trivia:capture", func(tx *gorm.DB) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, capturedQuery{
			sql:  tx.Statement.SQL.String(),
			vars: append([]any(nil), tx.Statement.Vars...),
		})
	})
	require.NoError(t, err)

	return NewStore(db), func() []capturedQuery {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedQuery(nil), got...)
	}
}

// openTestStore connects to the throwaway database named by
// TRIVIA_TEST_POSTGRES_DSN. Its content tables are dropped and recreated.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TRIVIA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TRIVIA_TEST_POSTGRES_DSN not set")
	}
	db, err := OpenPostgres(dsn, false)
	require.NoError(t, err)
	store := NewStore(db)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, db.Migrator().DropTable(&AnswerModel{}, &QuestionModel{}, &CategoryModel{}))
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestToModels_KeepsIDsAndCorrectFlag(t *testing.T) {
	t.Parallel()
	bank := loadTestBank(t)

	models := toModels(bank)
	require.Len(t, models, 2)

	science := models[0]
	assert.Equal(t, "Science", science.Name)
	require.Len(t, science.Questions, 2)

	q := science.Questions[0]
	assert.Equal(t, science.ID, q.CategoryID)
	require.Len(t, q.Answers, 4)

	var correct int
	for i, a := range q.Answers {
		assert.Equal(t, q.ID, a.QuestionID)
		assert.Equal(t, i, a.Order)
		if a.IsCorrect {
			correct++
			assert.Equal(t, "Au", a.Content)
		}
	}
	assert.Equal(t, 1, correct)
}

func TestQuestionModel_ToQuestion(t *testing.T) {
	t.Parallel()
	bank := loadTestBank(t)

	for _, cm := range toModels(bank) {
		for _, qm := range cm.Questions {
			q := qm.toQuestion()
			want := bank.byQuestion[qm.ID]
			assert.Equal(t, want, q)
		}
	}
}

func TestTableNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "categories", CategoryModel{}.TableName())
	assert.Equal(t, "questions", QuestionModel{}.TableName())
	assert.Equal(t, "answers", AnswerModel{}.TableName())
}

func TestStore_CategoriesQuery(t *testing.T) {
	t.Parallel()
	store, queries := dryRunStore(t)

	cats, err := store.Categories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cats)

	got := queries()
	require.Len(t, got, 1)
	assert.Equal(t, `SELECT * FROM "categories" ORDER BY name`, got[0].sql)
}

func TestStore_QuestionsQuery(t *testing.T) {
	t.Parallel()
	store, queries := dryRunStore(t)
	categoryID := uuid.New()

	_, err := store.Questions(context.Background(), categoryID)
	require.NoError(t, err)

	got := queries()
	require.Len(t, got, 1, "answers are preloaded only for fetched questions")
	assert.Equal(t, `SELECT * FROM "questions" WHERE category_id = $1`, got[0].sql)
	assert.Equal(t, []any{categoryID}, got[0].vars)
}

func TestStore_AnswerQueries(t *testing.T) {
	t.Parallel()
	store, queries := dryRunStore(t)
	answerID, questionID := uuid.New(), uuid.New()

	_, err := store.Answer(context.Background(), answerID)
	require.NoError(t, err)
	_, err = store.AnswerByContent(context.Background(), questionID, "Au")
	require.NoError(t, err)

	got := queries()
	require.Len(t, got, 2)

	assert.Contains(t, got[0].sql, `FROM "answers" WHERE id = $1`)
	assert.Contains(t, got[0].sql, "LIMIT")
	assert.Contains(t, got[0].vars, any(answerID))

	assert.Contains(t, got[1].sql, `FROM "answers" WHERE question_id = $1 AND content = $2`)
	assert.Contains(t, got[1].sql, "LIMIT")
	assert.Equal(t, questionID, got[1].vars[0])
	assert.Equal(t, "Au", got[1].vars[1])
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrInvalidDB), gorm.ErrInvalidDB)
}

func TestStore_Postgres(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	bank := loadTestBank(t)

	seeded, err := store.Seed(ctx, bank)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = store.Seed(ctx, bank)
	require.NoError(t, err)
	assert.False(t, seeded, "a populated store is left alone")

	// migrating again keeps the data
	require.NoError(t, store.Migrate(ctx))

	cats, err := store.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Geography", cats[0].Name)
	assert.Equal(t, "Science", cats[1].Name)

	for _, c := range cats {
		want, err := bank.Questions(ctx, c.ID)
		require.NoError(t, err)
		got, err := store.Questions(ctx, c.ID)
		require.NoError(t, err)
		// answers come back in their original order with the correct one marked
		assert.ElementsMatch(t, want, got)
	}

	none, err := store.Questions(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)

	science := cats[1]
	questions, err := store.Questions(ctx, science.ID)
	require.NoError(t, err)
	require.NotEmpty(t, questions)
	q := questions[0]

	a, err := store.Answer(ctx, q.Answers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, q.Answers[0], a)

	_, err = store.Answer(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	byContent, err := store.AnswerByContent(ctx, q.ID, q.Answers[1].Content)
	require.NoError(t, err)
	assert.Equal(t, q.Answers[1].ID, byContent.ID)

	_, err = store.AnswerByContent(ctx, q.ID, "no such answer")
	assert.ErrorIs(t, err, ErrNotFound)
}
