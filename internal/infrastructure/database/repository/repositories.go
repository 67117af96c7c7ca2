package repository

import (
	"complyguard-lab/internal/infrastructure/database"
)

// Repositories holds all repository instances
type Repositories struct {
	Assessments *AssessmentRepository
	Gaps        *GapRepository
	Incidents   *IncidentRepository
}

// NewRepositories creates all repository instances over the shared database
func NewRepositories(db *database.PostgresDB) *Repositories {
	return &Repositories{
		Assessments: NewAssessmentRepository(db),
		Gaps:        NewGapRepository(db),
		Incidents:   NewIncidentRepository(db),
	}
}
