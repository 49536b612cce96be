package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"levelup-gatekeeper/internal/domain"
	"github.com/bwmarrin/discordgo"
)

// Handler consumes incoming guild messages.
type Handler func(ctx context.Context, msg domain.Message)

// Adapter implements the app platform ports on top of a discordgo session.
type Adapter struct {
	session *discordgo.Session
}

// New creates a bot session; Open connects it.
func New(token string) (*Adapter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent
	// Failed REST calls surface to the caller once; nothing is retried.
	session.MaxRestRetries = 0
	session.ShouldRetryOnRateLimit = false
	return &Adapter{session: session}, nil
}

// Listen registers handler for guild messages. Events are dispatched concurrently.
// The returned function removes the handler.
func (a *Adapter) Listen(ctx context.Context, handler Handler) func() {
	return a.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		msg, ok := toMessage(m)
		if !ok {
			return
		}
		handler(ctx, msg)
	})
}

func (a *Adapter) Open() error { return a.session.Open() }

func (a *Adapter) Close() error { return a.session.Close() }

func (a *Adapter) Send(ctx context.Context, channelID, content string) error {
	_, err := a.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return classify(err)
}

func (a *Adapter) Timeout(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	err := a.session.GuildMemberTimeout(guildID, userID, &until,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	return classify(err)
}

func (a *Adapter) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	member, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	return member.Roles, nil
}

func (a *Adapter) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return classify(a.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

func (a *Adapter) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return classify(a.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

func (a *Adapter) RoleName(ctx context.Context, guildID, roleID string) (string, error) {
	if role, err := a.session.State.Role(guildID, roleID); err == nil {
		return role.Name, nil
	}
	roles, err := a.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err)
	}
	for _, role := range roles {
		if role.ID == roleID {
			return role.Name, nil
		}
	}
	return "", fmt.Errorf("role %s not found in guild %s", roleID, guildID)
}

// classify maps a rejected request onto domain.ErrPermissionDenied.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	return err
}

// toMessage converts guild messages; direct messages are skipped.
func toMessage(m *discordgo.MessageCreate) (domain.Message, bool) {
	if m == nil || m.Message == nil || m.Author == nil || m.GuildID == "" {
		return domain.Message{}, false
	}
	msg := domain.Message{
		ID:          m.ID,
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		AuthorID:    m.Author.ID,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
	}
	for _, embed := range m.Embeds {
		if embed == nil {
			continue
		}
		converted := domain.Embed{Title: embed.Title}
		for _, field := range embed.Fields {
			if field == nil {
				continue
			}
			converted.Fields = append(converted.Fields, domain.EmbedField{Name: field.Name, Value: field.Value})
		}
		msg.Embeds = append(msg.Embeds, converted)
	}
	return msg, true
}
