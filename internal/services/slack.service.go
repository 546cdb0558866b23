package services

import (
	"context"
	"strings"
	"sync"

	"serverbot/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewSlackClients creates the Web API client and the Socket Mode client on top of it
func NewSlackClients(botToken, appToken string, debug bool, logger *zap.Logger) (*slack.Client, *socketmode.Client) {
	stdLog := zap.NewStdLog(logger.Named("slack"))
	api := slack.New(botToken,
		slack.OptionAppLevelToken(appToken),
		slack.OptionDebug(debug),
		slack.OptionLog(stdLog),
	)
	socket := socketmode.New(api,
		socketmode.OptionDebug(debug),
		socketmode.OptionLog(stdLog),
	)
	return api, socket
}

// SlackPoster posts messages through the Slack Web API
type SlackPoster struct {
	api *slack.Client
}

// NewSlackPoster wraps api as a Poster
func NewSlackPoster(api *slack.Client) *SlackPoster {
	return &SlackPoster{api: api}
}

// PostMessage sends text to the channel
func (p *SlackPoster) PostMessage(ctx context.Context, destination models.ChannelDestination, text string) error {
	_, _, err := p.api.PostMessageContext(ctx, string(destination), slack.MsgOptionText(text, false))
	return err
}

// ConversationLister pages through the workspace's conversations
type ConversationLister interface {
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
}

// ResolveChannelID returns the ID of the channel called name, or "" if there is none
func ResolveChannelID(ctx context.Context, lister ConversationLister, name string) (models.ChannelDestination, error) {
	name = strings.TrimPrefix(name, "#")
	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           200,
		Types:           []string{"public_channel", "private_channel"},
	}

	for {
		channels, cursor, err := lister.GetConversationsContext(ctx, params)
		if err != nil {
			return "", errors.Wrap(err, "list conversations")
		}
		for _, ch := range channels {
			if ch.Name == name {
				return models.ChannelDestination(ch.ID), nil
			}
		}
		if cursor == "" {
			return "", nil
		}
		params.Cursor = cursor
	}
}

// SlackBot answers messages received over Socket Mode
type SlackBot struct {
	socket       *socketmode.Client
	replier      *Replier
	poster       Poster
	botUserID    string
	alertChannel models.ChannelDestination
	logger       *zap.Logger

	wg sync.WaitGroup
}

// NewSlackBot creates a bot. Messages from botUserID and in alertChannel are ignored.
func NewSlackBot(socket *socketmode.Client, replier *Replier, poster Poster, botUserID string, alertChannel models.ChannelDestination, logger *zap.Logger) *SlackBot {
	return &SlackBot{
		socket:       socket,
		replier:      replier,
		poster:       poster,
		botUserID:    botUserID,
		alertChannel: alertChannel,
		logger:       logger,
	}
}

// Run connects and handles events until ctx is cancelled
func (b *SlackBot) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.socket.RunContext(gctx)
	})
	g.Go(func() error {
		return b.consume(gctx)
	})

	err := g.Wait()
	b.wg.Wait()
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (b *SlackBot) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-b.socket.Events:
			if !ok {
				return nil
			}
			b.handleEvent(ctx, evt)
		}
	}
}

func (b *SlackBot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info("Connecting to Slack with Socket Mode")
	case socketmode.EventTypeConnectionError:
		b.logger.Warn("Slack connection failed, retrying")
	case socketmode.EventTypeConnected:
		b.logger.Info("Connected to Slack with Socket Mode")
	case socketmode.EventTypeEventsAPI:
		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			b.logger.Debug("Ignored unexpected events API payload")
			return
		}
		if evt.Request != nil {
			b.socket.Ack(*evt.Request)
		}
		if eventsAPIEvent.Type != slackevents.CallbackEvent {
			return
		}

		ev, ok := eventsAPIEvent.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok {
			return
		}
		msg := models.IncomingMessage{
			Channel: ev.Channel,
			User:    ev.User,
			Text:    ev.Text,
			SubType: ev.SubType,
			BotID:   ev.BotID,
		}

		// Replies may outlive shutdown of the event loop; Run waits for them
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.reply(context.WithoutCancel(ctx), msg)
		}()
	}
}

// reply isolates one message: a panicking reply handler is logged, never propagated.
func (b *SlackBot) reply(ctx context.Context, msg models.IncomingMessage) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Reply handler panicked",
				zap.String("channel", msg.Channel),
				zap.String("text", msg.Text),
				zap.Any("panic", r))
		}
	}()
	b.HandleMessage(ctx, msg)
}

// isDirectMessage reports whether a channel ID names a direct message conversation
func isDirectMessage(channel string) bool {
	return strings.HasPrefix(channel, "D")
}

// HandleMessage replies to known commands, and to anything else only in a direct message
func (b *SlackBot) HandleMessage(ctx context.Context, msg models.IncomingMessage) {
	// Skip messages that are from a bot or my own user ID
	if msg.FromBot() || (msg.SubType == "" && msg.User == b.botUserID) {
		return
	}
	if msg.Text == "" {
		return
	}
	if b.alertChannel != "" && models.ChannelDestination(msg.Channel) == b.alertChannel {
		return
	}

	reply, err := b.replier.Reply(ctx, msg.Text)
	if errors.Is(err, ErrUnknownCommand) {
		// Only direct messages are answered when the command is not understood
		if !isDirectMessage(msg.Channel) {
			return
		}
		reply, err = unknownMessage, nil
	}
	if err != nil {
		b.logger.Error("Failed to compute reply",
			zap.String("channel", msg.Channel),
			zap.String("text", msg.Text),
			zap.Error(err))
		return
	}
	if reply == "" {
		return
	}

	if err := b.poster.PostMessage(ctx, models.ChannelDestination(msg.Channel), reply); err != nil {
		b.logger.Error("Failed to send reply", zap.String("channel", msg.Channel), zap.Error(err))
	}
}
