package bot

import (
	"context"
	"fmt"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/campus-job-board/internal/domain/events"
	"github.com/maxaizer/campus-job-board/internal/domain/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type moderationQueue interface {
	Users(ctx context.Context) ([]models.User, error)
	Jobs(ctx context.Context) ([]models.Job, error)
}

// Bot tells the administrators' chat about work waiting for moderation and
// answers a few read-only commands from that chat.
type Bot struct {
	api         apiInterface
	adminChatID int64
	bus         EventBus.Bus
	queue       moderationQueue
}

func NewBot(token string, adminChatID int64, bus EventBus.Bus, queue moderationQueue) (*Bot, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	err = botApi.SetLogger(log.StandardLogger())
	if err != nil {
		return nil, err
	}

	return newBot(api, adminChatID, bus, queue)
}

func newBot(api apiInterface, adminChatID int64, bus EventBus.Bus, queue moderationQueue) (*Bot, error) {

	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	if queue == nil {
		return nil, errors.New("moderation queue is nil")
	}

	if adminChatID == 0 {
		return nil, errors.New("admin chat id is not set")
	}

	createdBot := &Bot{api: api, adminChatID: adminChatID, bus: bus, queue: queue}

	for topic, handler := range createdBot.subscriptions() {
		if err := bus.SubscribeAsync(topic, handler, false); err != nil {
			return nil, errors.Wrapf(err, "subscribe to %s", topic)
		}
	}
	return createdBot, nil
}

func (b *Bot) subscriptions() map[string]any {
	return map[string]any{
		events.UserRegisteredTopic:           b.onUserRegistered,
		events.JobPostedTopic:                b.onJobPosted,
		events.ApplicationStatusChangedTopic: b.onApplicationStatusChanged,
	}
}

// Run handles commands from the admin chat until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {

	updateConfig := botApi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || update.Message.Chat == nil || update.Message.Chat.ID != b.adminChatID {
				continue
			}

			if cmd := update.Message.Command(); cmd != "" {
				go b.handleCommand(ctx, cmd)
			}
		}
	}
}

// Stop detaches the bot from the bus and waits for queued notifications.
func (b *Bot) Stop() {
	for topic, handler := range b.subscriptions() {
		if err := b.bus.Unsubscribe(topic, handler); err != nil {
			log.Warnf("Error unsubscribing from %s: %v", topic, err)
		}
	}
	b.bus.WaitAsync()
}

func (b *Bot) handleCommand(ctx context.Context, command string) {

	var text string
	var err error

	switch command {
	case startCommandName:
		text = helpText
	case pendingCommandName:
		text, err = pendingJobsText(ctx, b.queue)
	case companiesCommandName:
		text, err = unverifiedCompaniesText(ctx, b.queue)
	default:
		text = "Unknown command!"
	}

	if err != nil {
		log.Errorf("Error handling /%s: %v", command, err)
		text = "Internal error!"
	}

	b.notify(text)
}

func (b *Bot) notify(text string) {
	_, _ = sendWithLogError(b.api, botApi.NewMessage(b.adminChatID, text))
}

func (b *Bot) onUserRegistered(event events.UserRegistered) {
	if event.User.Role != models.RoleCompany {
		return
	}
	b.notify(fmt.Sprintf("New company awaiting verification: #%d %s <%s>",
		event.User.ID, event.User.CompanyName, event.User.Email))
}

func (b *Bot) onJobPosted(event events.JobPosted) {
	b.notify(fmt.Sprintf("New job awaiting approval: #%d %s (%s)",
		event.Job.ID, event.Job.Title, event.Job.CompanyName))
}

func (b *Bot) onApplicationStatusChanged(event events.ApplicationStatusChanged) {
	b.notify(fmt.Sprintf("Application #%d for job #%d changed status: %s -> %s",
		event.Application.ID, event.Application.JobID, event.Previous, event.Application.Status))
}
