// Command seed loads a small demo school into the configured database:
// one admin, one teacher with a class, three students and two subjects.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/academic-records-service/internal/cache"
	"github.com/SAP-F-2025/academic-records-service/internal/config"
	"github.com/SAP-F-2025/academic-records-service/internal/events"
	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/academic-records-service/internal/services"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
	"github.com/SAP-F-2025/academic-records-service/pkg"
)

func main() {
	var (
		password   string
		withGrades bool
	)
	flag.StringVar(&password, "password", "changeme-demo", "password given to every seeded account")
	flag.BoolVar(&withGrades, "grades", true, "also record Term 1 grades")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(context.Background(), logger, password, withGrades); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, password string, withGrades bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	cfg.AutoMigrate = true

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}

	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
	defer repo.Close()

	if _, err := repo.User().GetByUsername(ctx, nil, "admin"); err == nil {
		logger.Info("Demo data already present, nothing to do")
		return nil
	} else if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to check existing data: %w", err)
	}

	publisher, _ := events.NewInProcessPublisher(cfg.EventsTopicPrefix, logger)
	sm := services.NewDefaultServiceManager(db, repo, logger, validator.New(), publisher, cache.NewCacheManager(nil, 0))
	if err := sm.Initialize(ctx); err != nil {
		return err
	}
	defer sm.Shutdown(ctx)

	hash, err := sm.Auth().HashCredential(password)
	if err != nil {
		return err
	}

	var school demoSchool
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		school, err = seedSchool(ctx, tx, repo, hash)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to seed school: %w", err)
	}
	logger.Info("Seeded school", "class_id", school.class.ID, "teacher_id", school.teacher.ID, "students", len(school.students))

	if withGrades {
		if err := seedGrades(ctx, sm.Grade(), school); err != nil {
			return err
		}
		logger.Info("Seeded grades")
	}

	return nil
}

type demoSchool struct {
	adminID  uint
	teacher  *models.Teacher
	class    *models.Class
	students []*models.Student
	subjects []*models.Subject
}

func seedSchool(ctx context.Context, tx *gorm.DB, repo repositories.Repository, hash string) (demoSchool, error) {
	var school demoSchool

	newUser := func(username, email string, role models.UserRole) (*models.User, error) {
		u := &models.User{Username: username, Email: email, PasswordHash: hash, Role: role, Status: models.UserActive}
		if err := repo.User().Create(ctx, tx, u); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", username, err)
		}
		return u, nil
	}

	admin, err := newUser("admin", "admin@school.test", models.RoleAdmin)
	if err != nil {
		return school, err
	}
	school.adminID = admin.ID

	teacherUser, err := newUser("t.okafor", "okafor@school.test", models.RoleTeacher)
	if err != nil {
		return school, err
	}
	school.teacher = &models.Teacher{UserID: &teacherUser.ID, Name: "Ngozi Okafor", Email: teacherUser.Email, Specialization: "Mathematics", Status: models.UserActive}
	if err := repo.Teacher().Create(ctx, tx, school.teacher); err != nil {
		return school, fmt.Errorf("failed to create teacher: %w", err)
	}

	school.class = &models.Class{Name: "Grade 10A", Year: 2025, TeacherID: &school.teacher.ID}
	if err := repo.Class().Create(ctx, tx, school.class); err != nil {
		return school, fmt.Errorf("failed to create class: %w", err)
	}

	for _, name := range []string{"Mathematics", "Physics"} {
		subject := &models.Subject{Name: name, ClassID: school.class.ID}
		if err := repo.Subject().Create(ctx, tx, subject); err != nil {
			return school, fmt.Errorf("failed to create subject %s: %w", name, err)
		}
		school.subjects = append(school.subjects, subject)
	}

	for _, s := range []struct{ username, name, gender string }{
		{"amara", "Amara Nwosu", "female"},
		{"bruno", "Bruno Costa", "male"},
		{"chen", "Chen Wei", "male"},
	} {
		u, err := newUser(s.username, s.username+"@school.test", models.RoleStudent)
		if err != nil {
			return school, err
		}
		student := &models.Student{UserID: &u.ID, Name: s.name, Gender: s.gender, Email: u.Email, ClassID: &school.class.ID, Status: models.StudentActive}
		if err := repo.Student().Create(ctx, tx, student); err != nil {
			return school, fmt.Errorf("failed to create student %s: %w", s.name, err)
		}
		school.students = append(school.students, student)
	}

	return school, nil
}

func seedGrades(ctx context.Context, grades services.GradeService, school demoSchool) error {
	admin := &models.SessionSnapshot{Authenticated: true, UserID: school.adminID, Username: "admin", Role: models.RoleAdmin}
	scores := [][]float64{{92, 85.5}, {78, 64}, {55.25, 71}}

	for i, student := range school.students {
		for j, subject := range school.subjects {
			score := scores[i][j]
			_, err := grades.AddGrade(ctx, admin, &services.AddGradeRequest{
				StudentID: student.ID,
				SubjectID: subject.ID,
				ClassID:   school.class.ID,
				TeacherID: &school.teacher.ID,
				Term:      models.TermOne,
				Score:     &score,
			})
			if err != nil {
				return fmt.Errorf("failed to add grade for %s: %w", student.Name, err)
			}
		}
	}
	return nil
}
