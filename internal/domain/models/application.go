package models

// ApplicationStatus is usually one of the constants below, but companies may
// set any value.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

type Application struct {
	ID          int               `json:"id" gorm:"primaryKey;autoIncrement:false"`
	JobID       int               `json:"job_id" gorm:"index"`
	StudentID   int               `json:"student_id" gorm:"index"`
	StudentName string            `json:"student_name"`
	Status      ApplicationStatus `json:"status"`
	CoverLetter string            `json:"cover_letter"`
	AppliedAt   string            `json:"applied_at"`
}

func (a Application) GetID() int {
	return a.ID
}

// EnrichedApplication carries the referenced job next to the application.
// Job is nil when the job no longer exists.
type EnrichedApplication struct {
	Application
	Job *Job `json:"job"`
}

type ApplicationPatch struct {
	Status *ApplicationStatus
}

func (p ApplicationPatch) Apply(a *Application) {
	if p.Status != nil {
		a.Status = *p.Status
	}
}
