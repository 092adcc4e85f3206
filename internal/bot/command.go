package bot

import (
	"context"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/campus-job-board/internal/domain/models"
	"github.com/maxaizer/campus-job-board/internal/logger"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"strings"
)

type apiInterface interface {
	Send(chattable tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

const (
	startCommandName     = "start"
	pendingCommandName   = "pending"
	companiesCommandName = "companies"
)

const helpText = "Moderation bot for the campus job board.\n" +
	"/" + pendingCommandName + " - jobs awaiting approval\n" +
	"/" + companiesCommandName + " - companies awaiting verification"

func sendWithLogError(api apiInterface, chattable tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, err := api.Send(chattable)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Errorf("error occured while sending message: %v", err)
	}
	return msg, err
}

func pendingJobsText(ctx context.Context, queue moderationQueue) (string, error) {
	jobs, err := queue.Jobs(ctx)
	if err != nil {
		return "", err
	}

	pending := lo.Filter(jobs, func(job models.Job, _ int) bool { return job.Status == models.JobPending })
	if len(pending) == 0 {
		return "No jobs awaiting approval", nil
	}

	lines := lo.Map(pending, func(job models.Job, _ int) string {
		return fmt.Sprintf("#%d %s (%s)", job.ID, job.Title, job.CompanyName)
	})
	return "Jobs awaiting approval:\n" + strings.Join(lines, "\n"), nil
}

func unverifiedCompaniesText(ctx context.Context, queue moderationQueue) (string, error) {
	users, err := queue.Users(ctx)
	if err != nil {
		return "", err
	}

	companies := lo.Filter(users, func(u models.User, _ int) bool { return u.Role == models.RoleCompany && !u.Verified })
	if len(companies) == 0 {
		return "No companies awaiting verification", nil
	}

	lines := lo.Map(companies, func(u models.User, _ int) string {
		return fmt.Sprintf("#%d %s <%s>", u.ID, u.CompanyName, u.Email)
	})
	return "Companies awaiting verification:\n" + strings.Join(lines, "\n"), nil
}
