package events

import (
	"github.com/maxaizer/campus-job-board/internal/domain/models"
)

const (
	UserRegisteredTopic           = "UserRegisteredEvent"
	CompanyVerifiedTopic          = "CompanyVerifiedEvent"
	JobPostedTopic                = "JobPostedEvent"
	JobReviewedTopic              = "JobReviewedEvent"
	ApplicationSubmittedTopic     = "ApplicationSubmittedEvent"
	ApplicationStatusChangedTopic = "ApplicationStatusChangedEvent"
)

// Topics lists every topic published by the job board.
var Topics = []string{
	UserRegisteredTopic,
	CompanyVerifiedTopic,
	JobPostedTopic,
	JobReviewedTopic,
	ApplicationSubmittedTopic,
	ApplicationStatusChangedTopic,
}

type UserRegistered struct {
	User models.User
}

type CompanyVerified struct {
	Company models.User
	AdminID int
}

type JobPosted struct {
	Job models.Job
}

type JobReviewed struct {
	Job     models.Job
	AdminID int
}

type ApplicationSubmitted struct {
	Application models.Application
}

type ApplicationStatusChanged struct {
	Application models.Application
	Previous    models.ApplicationStatus
	CompanyID   int
}
