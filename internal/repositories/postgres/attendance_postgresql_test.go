package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
)

// sqlRecorder keeps the statements gorm builds
type sqlRecorder struct {
	logger.Interface
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *sqlRecorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, _ := fc()
	r.statements = append(r.statements, sql)
}

func TestAttendancePostgreSQL_UpsertStatement(t *testing.T) {
	recorder := &sqlRecorder{Interface: logger.Discard}
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 port=1 user=records dbname=records sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               recorder,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	repo := NewAttendancePostgreSQL(db)
	record := &models.AttendanceRecord{
		StudentID: 4,
		ClassID:   2,
		Date:      time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:    models.AttendanceAbsent,
	}
	if err := repo.Upsert(t.Context(), nil, record); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if len(recorder.statements) != 1 {
		t.Fatalf("statements = %q, want one insert", recorder.statements)
	}
	sql := recorder.statements[0]
	for _, want := range []string{
		`INSERT INTO "attendance"`,
		`ON CONFLICT ("student_id","date") DO UPDATE SET`,
		`"status"="excluded"."status"`,
		`"class_id"="excluded"."class_id"`,
		`"updated_at"="excluded"."updated_at"`,
		`RETURNING "id"`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("upsert sql missing %s\n%s", want, sql)
		}
	}
	if strings.Contains(sql, `"created_at"="excluded"."created_at"`) {
		t.Errorf("upsert overwrites created_at\n%s", sql)
	}
}

// TestAttendancePostgreSQL_Upsert runs against a real database when
// TEST_DATABASE_URL is set. Everything happens inside a rolled back transaction.
func TestAttendancePostgreSQL_Upsert(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	tx := db.Begin()
	t.Cleanup(func() { tx.Rollback() })

	if err := tx.AutoMigrate(&models.User{}, &models.Teacher{}, &models.Class{}, &models.Student{}, &models.AttendanceRecord{}); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	first := &models.Class{Name: "Grade 10A", Year: 2025}
	second := &models.Class{Name: "Grade 11B", Year: 2025}
	if err := tx.Create([]*models.Class{first, second}).Error; err != nil {
		t.Fatalf("create classes: %v", err)
	}
	student := &models.Student{Name: "Dalia", ClassID: &first.ID, Status: models.StudentActive}
	if err := tx.Create(student).Error; err != nil {
		t.Fatalf("create student: %v", err)
	}

	repo := NewAttendancePostgreSQL(db)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	marked := &models.AttendanceRecord{StudentID: student.ID, ClassID: first.ID, Date: day, Status: models.AttendancePresent}
	if err := repo.Upsert(t.Context(), tx, marked); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	remarked := &models.AttendanceRecord{StudentID: student.ID, ClassID: second.ID, Date: day, Status: models.AttendanceLate}
	if err := repo.Upsert(t.Context(), tx, remarked); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	if marked.ID == 0 || remarked.ID != marked.ID {
		t.Errorf("ids = %d then %d, want the same row", marked.ID, remarked.ID)
	}

	var rows []models.AttendanceRecord
	if err := tx.Where("student_id = ?", student.ID).Find(&rows).Error; err != nil {
		t.Fatalf("list attendance: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Status != models.AttendanceLate || rows[0].ClassID != second.ID {
		t.Errorf("row = %+v, want Late in class %d", rows[0], second.ID)
	}

	stored, err := repo.GetByStudentAndDate(t.Context(), tx, student.ID, day)
	if err != nil {
		t.Fatalf("GetByStudentAndDate() error = %v", err)
	}
	if stored.ID != marked.ID {
		t.Errorf("stored id = %d, want %d", stored.ID, marked.ID)
	}
}
