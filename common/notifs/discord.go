package notifs

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	mediation "github.com/tradepost/go-mediation"
	"github.com/tradepost/go-mediation/models"
)

type DiscordColor int

const (
	DiscordColor_None    = iota
	DiscordColor_Info    = 3447003
	DiscordColor_Ok      = 3581519
	DiscordColor_Warning = 16776960
	DiscordColor_Alert   = 16711712
)

const DiscordPacing = 2 * time.Second

// Discord rejects embed descriptions longer than this
const maxDescriptionLen = 4096

var _ models.Notifier = &DiscordHandler{}
var _ models.EventPublisher = &DiscordHandler{}

type WebhookUrls struct {
	Alert  string
	Events string
	Test   string
}

type DiscordHandler struct {
	alertWebhook  webhook.Client
	eventsWebhook webhook.Client
	testWebhook   webhook.Client
	logger        models.Logger
}

func NewDiscordHandler(logger models.Logger, urls WebhookUrls) (*DiscordHandler, error) {
	if a, err := parseDiscordWebhookUrl(urls.Alert); err != nil {
		return nil, fmt.Errorf("discord: alert webhook: %w", err)
	} else if e, err := parseDiscordWebhookUrl(urls.Events); err != nil {
		return nil, fmt.Errorf("discord: events webhook: %w", err)
	} else if t, err := parseDiscordWebhookUrl(urls.Test); err != nil {
		return nil, fmt.Errorf("discord: test webhook: %w", err)
	} else {
		return &DiscordHandler{a, e, t, logger}, nil
	}
}

func parseDiscordWebhookUrl(webhookUrl string) (webhook.Client, error) {
	if len(webhookUrl) > 0 {
		if parsedUrl, err := url.Parse(webhookUrl); err != nil {
			return nil, err
		} else {
			urlParts := strings.Split(strings.TrimSuffix(parsedUrl.Path, "/"), "/")
			if len(urlParts) < 2 {
				return nil, fmt.Errorf("malformed webhook url path %q", parsedUrl.Path)
			}
			if id, err := snowflake.Parse(urlParts[len(urlParts)-2]); err != nil {
				return nil, err
			} else {
				return webhook.New(id, urlParts[len(urlParts)-1]), nil
			}
		}
	}
	return nil, nil
}

// HasEvents reports whether transition events have somewhere to go.
func (d DiscordHandler) HasEvents() bool {
	return d.eventsWebhook != nil
}

func (d DiscordHandler) SendAlert(title, desc, content string) error {
	text := alertDescription(desc, content)
	if d.alertWebhook != nil {
		if err := d.sendNotif(d.alertWebhook, title, text, DiscordColor_Alert); err != nil {
			return err
		}
	}
	// Always duplicate notifications to the test channel, if configured.
	if d.testWebhook != nil {
		return d.sendNotif(d.testWebhook, title, text, DiscordColor_Alert)
	}
	return nil
}

func (d DiscordHandler) Publish(_ context.Context, event *models.TransitionEvent) error {
	if d.eventsWebhook == nil {
		return nil
	}
	return d.sendNotif(d.eventsWebhook, models.EventTitle, eventDescription(event), eventColor(event.NewStatus))
}

func (d DiscordHandler) sendNotif(wh webhook.Client, title, desc string, color DiscordColor) error {
	messageEmbed := discord.Embed{
		Title:       title,
		Description: desc,
		Type:        discord.EmbedTypeRich,
		Color:       int(color),
	}
	_, err := wh.CreateMessage(discord.NewWebhookMessageCreateBuilder().
		SetEmbeds(messageEmbed).
		SetUsername(mediation.ServiceName).
		Build(),
		rest.WithDelay(DiscordPacing),
	)
	if err != nil {
		d.logger.Errorf("sendNotif: error sending discord notification: %v, %s, %s", err, title, desc)
		return err
	}
	return nil
}

func alertDescription(desc, content string) string {
	text := desc
	if len(content) > 0 {
		text = fmt.Sprintf("%s\n```\n%s\n```", desc, content)
	}
	// Discord counts characters, not bytes
	if utf8.RuneCountInString(text) > maxDescriptionLen {
		text = string([]rune(text)[:maxDescriptionLen-3]) + "..."
	}
	return text
}

func eventDescription(event *models.TransitionEvent) string {
	desc := fmt.Sprintf(models.EventFmt_Transition, event.RequestId, event.OldStatus, event.NewStatus, event.Action, event.ActorId)
	if len(event.ClaimantId) > 0 {
		desc += fmt.Sprintf(models.EventFmt_Claimant, event.ClaimantId)
	}
	return desc
}

func eventColor(status models.RequestStatus) DiscordColor {
	switch status {
	case models.RequestStatus_Completed:
		return DiscordColor_Ok
	case models.RequestStatus_Cancelled:
		return DiscordColor_Warning
	default:
		return DiscordColor_Info
	}
}
