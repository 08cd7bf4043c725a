package app

import (
	"gorm.io/gorm"

	"github.com/classloop/classloop-backend/internal/data/repos"
	"github.com/classloop/classloop-backend/internal/data/repos/ledger"
	"github.com/classloop/classloop-backend/internal/data/repos/planning"
	"github.com/classloop/classloop-backend/internal/data/repos/roster"
	"github.com/classloop/classloop-backend/internal/platform/logger"
)

type Repos struct {
	Tx       repos.TxRunner
	Students roster.StudentRepo
	Plans    planning.LessonPlanRepo
	Tasks    ledger.TaskAssignmentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tx:       repos.NewGormTxRunner(db),
		Students: roster.NewStudentRepo(db, log),
		Plans:    planning.NewLessonPlanRepo(db, log),
		Tasks:    ledger.NewTaskAssignmentRepo(db, log),
	}
}
