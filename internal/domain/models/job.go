package models

import "errors"

type JobType string

const (
	FullTime   JobType = "full_time"
	PartTime   JobType = "part_time"
	Internship JobType = "internship"
	Contract   JobType = "contract"
)

func ToJobType(s string) (JobType, error) {
	switch s {
	case string(FullTime):
		return FullTime, nil
	case string(PartTime):
		return PartTime, nil
	case string(Internship):
		return Internship, nil
	case string(Contract):
		return Contract, nil
	default:
		return "", errors.New("invalid job type")
	}
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobApproved JobStatus = "approved"
	JobRejected JobStatus = "rejected"
)

type Job struct {
	ID           int       `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CompanyID    int       `json:"company_id" gorm:"index"`
	CompanyName  string    `json:"company_name"`
	Title        string    `json:"title"`
	Type         JobType   `json:"type"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	Location     string    `json:"location"`
	Deadline     string    `json:"deadline"`
	Status       JobStatus `json:"status" gorm:"index"`
	CreatedAt    string    `json:"created_at"`
}

func (j Job) GetID() int {
	return j.ID
}

type JobPatch struct {
	Status *JobStatus
}

func (p JobPatch) Apply(j *Job) {
	if p.Status != nil {
		j.Status = *p.Status
	}
}
