// Package announce posts the day's image to a Telegram chat.
package announce

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"potd/internal/catalog"
	"potd/pkg/logx"
)

type Config struct {
	Token    string
	ChatID   int64
	ThreadID int
	Silent   bool
}

type Service struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot

	// One announcement per day in normal operation; the limiter only guards
	// against config-reload or manual-trigger bursts.
	limiter *rate.Limiter
}

func New(cfg Config, log logx.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("announce: telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("announce: telegram chat_id is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	// Send-only bot: no poller.
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, fmt.Errorf("announce: %w", err)
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		bot:     b,
		limiter: rate.NewLimiter(rate.Every(30*time.Second), 2),
	}, nil
}

// Announce sends the selected image as a photo message.
func (s *Service) Announce(ctx context.Context, item catalog.Item, date string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	photo := &tele.Photo{
		File:    tele.FromURL(item.URL),
		Caption: Caption(item, date),
	}
	opts := &tele.SendOptions{
		ParseMode:           tele.ModeHTML,
		ThreadID:            s.cfg.ThreadID,
		DisableNotification: s.cfg.Silent,
	}

	started := time.Now()
	_, err := s.bot.Send(tele.ChatID(s.cfg.ChatID), photo, opts)
	if err != nil {
		s.log.Warn("announcement failed",
			logx.String("item", item.ID),
			logx.Duration("took", time.Since(started)),
			logx.Err(err))
		return fmt.Errorf("announce: send: %w", err)
	}
	s.log.Info("announced picture of the day",
		logx.String("item", item.ID),
		logx.String("date", date))
	return nil
}

// Caption renders the HTML caption for an announcement.
func Caption(item catalog.Item, date string) string {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = strings.TrimSpace(item.ID)
	}
	if title == "" {
		return fmt.Sprintf("Picture of the day (%s)", date)
	}
	return fmt.Sprintf("<b>%s</b>\nPicture of the day (%s)", html.EscapeString(title), date)
}
