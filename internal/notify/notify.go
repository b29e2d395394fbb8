package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/metrics"
	"github.com/hamed0406/sitewatch/internal/store"
)

// sendTimeout bounds a single provider call. A stalled webhook must not
// hold the rest of the fanout hostage.
const sendTimeout = 10 * time.Second

// httpClient is shared by every HTTP-backed provider.
var httpClient = &http.Client{Timeout: sendTimeout}

// Message is the one notification shape all providers render from.
// Title and Content arrive preformatted; the raw fields ride along for
// providers that ship structured payloads (webhook, kafka).
type Message struct {
	Title   string
	Content string

	TargetID string
	Name     string
	Types    []string
	Address  string
	Status   domain.Status
	Detail   string
	SentAt   time.Time
}

// NewMessage renders the message for one target transition.
func NewMessage(t *domain.Target, status domain.Status, detail string, now time.Time) Message {
	title := "[❌ Down] " + t.Name
	if status == domain.StatusUp {
		title = "[✅ Recovered] " + t.Name
	}

	types := make([]string, len(t.Types))
	for i, ct := range t.Types {
		types[i] = strings.ToUpper(string(ct))
	}

	content := fmt.Sprintf(
		"Monitor: %s\nType: %s\nTarget: %s\nStatus: %s\nDetail: %s\nTime: %s",
		t.Name,
		strings.Join(types, ", "),
		t.Address,
		status,
		detail,
		now.Format("2006-01-02 15:04:05"),
	)

	return Message{
		Title:    title,
		Content:  content,
		TargetID: t.ID,
		Name:     t.Name,
		Types:    types,
		Address:  t.Address,
		Status:   status,
		Detail:   detail,
		SentAt:   now,
	}
}

// Provider delivers one message to one configured channel.
type Provider func(ctx context.Context, config map[string]string, msg Message) error

// Dispatcher fans transition notifications out to the channels a target
// subscribes to.
type Dispatcher struct {
	channels  store.ChannelStore
	providers map[string]Provider
	log       *zap.Logger
	stats     metrics.Metrics
}

func NewDispatcher(channels store.ChannelStore, log *zap.Logger, stats metrics.Metrics) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if stats == nil {
		stats = metrics.Nop{}
	}
	return &Dispatcher{
		channels: channels,
		providers: map[string]Provider{
			"email":      Email,
			"webhook":    Webhook,
			"slack":      Slack,
			"wechat":     WeChat,
			"telegram":   Telegram,
			"bark":       Bark,
			"pushplus":   PushPlus,
			"serverchan": ServerChan,
			"kafka":      Kafka,
		},
		log:   log,
		stats: stats,
	}
}

// Register adds or replaces a provider under the given type name.
func (d *Dispatcher) Register(name string, p Provider) {
	d.providers[name] = p
}

// Dispatch sends one message per subscribed, enabled channel and waits
// for the whole fanout. Unknown and disabled channels are skipped
// silently; provider failures are logged and counted, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, t *domain.Target, status domain.Status, detail string) {
	if t == nil || len(t.NotifyChannels) == 0 {
		return
	}

	chans, err := d.channels.ListChannels(ctx)
	if err != nil {
		d.log.Warn("notify_channels_unavailable", zap.Error(err))
		return
	}

	byID := make(map[string]*domain.Channel, len(chans))
	for _, c := range chans {
		byID[c.ID] = c
	}

	msg := NewMessage(t, status, detail, time.Now())

	var wg sync.WaitGroup
	for _, id := range t.NotifyChannels {
		c, ok := byID[id]
		if !ok || !c.Enabled {
			continue
		}
		wg.Add(1)
		go func(c *domain.Channel) {
			defer wg.Done()
			d.send(ctx, c, msg)
		}(c)
	}
	wg.Wait()
}

// send runs one provider under its own timeout and panic guard.
func (d *Dispatcher) send(ctx context.Context, c *domain.Channel, msg Message) {
	p, ok := d.providers[c.Provider]
	if !ok {
		d.log.Warn("notify_provider_unknown",
			zap.String("channel", c.Name),
			zap.String("provider", c.Provider))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("provider panicked: %v", r)
			}
		}()
		return p(ctx, c.Config, msg)
	}()

	if err != nil {
		d.stats.Increment("notify.failure")
		d.log.Warn("notify_send_failed",
			zap.String("channel", c.Name),
			zap.String("provider", c.Provider),
			zap.Error(err))
		return
	}

	d.stats.Increment("notify.success")
	d.log.Info("notify_sent",
		zap.String("channel", c.Name),
		zap.String("provider", c.Provider))
}

// Test pushes a synthetic message through one channel so its config can
// be verified before monitors subscribe to it.
func (d *Dispatcher) Test(ctx context.Context, channelID string) error {
	chans, err := d.channels.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	var ch *domain.Channel
	for _, c := range chans {
		if c.ID == channelID {
			ch = c
			break
		}
	}
	if ch == nil {
		return store.ErrNotFound
	}

	p, ok := d.providers[ch.Provider]
	if !ok {
		return fmt.Errorf("unknown provider %q", ch.Provider)
	}

	now := time.Now()
	msg := Message{
		Title: "[Test] SiteWatch notification",
		Content: "Monitor: test\nStatus: up\nDetail: test notification\nTime: " +
			now.Format("2006-01-02 15:04:05"),
		Name:   "test",
		Status: domain.StatusUp,
		Detail: "test notification",
		SentAt: now,
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return p(ctx, ch.Config, msg)
}
