package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// CategoryModel table of categories
type CategoryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time

	Questions []QuestionModel `gorm:"foreignKey:CategoryID"`
}

// TableName overrides the gorm default
func (CategoryModel) TableName() string { return "categories" }

// QuestionModel table of questions
type QuestionModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index"`
	Content    string    `gorm:"not null"`
	CreatedAt  time.Time

	Answers []AnswerModel `gorm:"foreignKey:QuestionID"`
}

// TableName overrides the gorm default
func (QuestionModel) TableName() string { return "questions" }

// AnswerModel table of answers; exactly one per question has IsCorrect set.
type AnswerModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index"`
	Content    string    `gorm:"not null"`
	IsCorrect  bool      `gorm:"not null;default:false"`
	Order      int       `gorm:"not null"`
}

// TableName overrides the gorm default
func (AnswerModel) TableName() string { return "answers" }

// Store is a Provider backed by PostgreSQL through gorm.
type Store struct {
	db *gorm.DB
}

// OpenPostgres connects to PostgreSQL with lib/pq and wraps the pool in gorm.
func OpenPostgres(dsn string, verbose bool) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	gormConfig := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if verbose {
		gormConfig.Logger = gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormlogger.Info,
				Colorful:      true,
			},
		)
	}

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// NewStore wraps an open gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the content tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&CategoryModel{}, &QuestionModel{}, &AnswerModel{}); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

// Seed inserts the bank's content when the categories table is empty.
// It reports whether anything was written.
func (s *Store) Seed(ctx context.Context, bank *Bank) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&CategoryModel{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	models := toModels(bank)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
	if err != nil {
		return false, fmt.Errorf("seed content: %w", err)
	}
	return true, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Categories lists every category ordered by name.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	var rows []CategoryModel
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, Category{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

// Questions lists the questions of one category with their answers.
func (s *Store) Questions(ctx context.Context, categoryID uuid.UUID) ([]Question, error) {
	var rows []QuestionModel
	err := s.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("\"order\"") }).
		Where("category_id = ?", categoryID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toQuestion())
	}
	return out, nil
}

// Answer looks up an answer by id.
func (s *Store) Answer(ctx context.Context, id uuid.UUID) (Answer, error) {
	var row AnswerModel
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return Answer{}, translate(err)
	}
	return Answer{ID: row.ID, Content: row.Content}, nil
}

// AnswerByContent finds the answer of a question by its text.
func (s *Store) AnswerByContent(ctx context.Context, questionID uuid.UUID, content string) (Answer, error) {
	var row AnswerModel
	err := s.db.WithContext(ctx).
		Where("question_id = ? AND content = ?", questionID, content).
		First(&row).Error
	if err != nil {
		return Answer{}, translate(err)
	}
	return Answer{ID: row.ID, Content: row.Content}, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (m QuestionModel) toQuestion() Question {
	q := Question{ID: m.ID, CategoryID: m.CategoryID, Content: m.Content}
	for _, a := range m.Answers {
		q.Answers = append(q.Answers, Answer{ID: a.ID, Content: a.Content})
		if a.IsCorrect {
			q.CorrectAnswerID = a.ID
		}
	}
	return q
}

func toModels(bank *Bank) []CategoryModel {
	out := make([]CategoryModel, 0, len(bank.categories))
	for _, c := range bank.categories {
		cm := CategoryModel{ID: c.ID, Name: c.Name}
		for _, q := range bank.questions[c.ID] {
			qm := QuestionModel{ID: q.ID, CategoryID: c.ID, Content: q.Content}
			for i, a := range q.Answers {
				qm.Answers = append(qm.Answers, AnswerModel{
					ID:         a.ID,
					QuestionID: q.ID,
					Content:    a.Content,
					IsCorrect:  a.ID == q.CorrectAnswerID,
					Order:      i,
				})
			}
			cm.Questions = append(cm.Questions, qm)
		}
		out = append(out, cm)
	}
	return out
}
