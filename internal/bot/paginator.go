package bot

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"quotebot/app/internal/embed"
	"quotebot/app/internal/story"
)

// Button custom IDs for the paginated search view.
const (
	pageFirst = "quotes:first"
	pageBack  = "quotes:back"
	pageNext  = "quotes:next"
	pageLast  = "quotes:last"
	pageStop  = "quotes:stop"
)

// paginator holds the state of one paginated search result message. Only the
// user who ran the search may drive it. Pages are stamped out from a shared
// story template embed.
type paginator struct {
	ownerID  string
	template *embed.StoryQuoteEmbed
	pages    []story.Quote
	index    int
}

func newPaginator(ownerID string, info story.Info, pages []story.Quote) *paginator {
	template := embed.NewStoryQuote(
		embed.WithColor(quoteColor),
		embed.WithStory(info.Metadata()),
	)

	return &paginator{ownerID: ownerID, template: template, pages: pages}
}

// step moves the view for the given button press and reports whether the
// current page changed.
func (p *paginator) step(customID string) bool {
	previous := p.index

	switch customID {
	case pageFirst:
		p.index = 0
	case pageBack:
		if p.index > 0 {
			p.index--
		}
	case pageNext:
		if p.index < len(p.pages)-1 {
			p.index++
		}
	case pageLast:
		p.index = len(p.pages) - 1
	}

	return p.index != previous
}

// pageEmbed renders the current page from the story template.
func (p *paginator) pageEmbed() (*discordgo.MessageEmbed, error) {
	quote := p.pages[p.index]

	return p.template.Clone().
		SetPageContent(quote.Content()).
		SetPageFooter(p.index+1, len(p.pages)).
		Build()
}

// components renders the navigation row, disabling buttons that cannot move
// the view from the current page.
func (p *paginator) components() []discordgo.MessageComponent {
	atStart := p.index == 0
	atEnd := p.index == len(p.pages)-1

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "«", Style: discordgo.SecondaryButton, CustomID: pageFirst, Disabled: atStart},
				discordgo.Button{Label: "‹", Style: discordgo.SecondaryButton, CustomID: pageBack, Disabled: atStart},
				discordgo.Button{Label: "›", Style: discordgo.SecondaryButton, CustomID: pageNext, Disabled: atEnd},
				discordgo.Button{Label: "»", Style: discordgo.SecondaryButton, CustomID: pageLast, Disabled: atEnd},
				discordgo.Button{Label: "✕", Style: discordgo.DangerButton, CustomID: pageStop},
			},
		},
	}
}

// paginatorRegistry tracks live paginators by message ID and retires the ones
// that have been idle past the TTL.
type paginatorRegistry struct {
	mu      sync.Mutex
	views   map[string]*registeredPaginator
	ttl     time.Duration
	stop    chan struct{}
	stopped sync.Once
	now     func() time.Time
}

type registeredPaginator struct {
	view     *paginator
	lastSeen time.Time
}

func newPaginatorRegistry(ttl time.Duration) *paginatorRegistry {
	return &paginatorRegistry{
		views: make(map[string]*registeredPaginator),
		ttl:   ttl,
		stop:  make(chan struct{}),
		now:   time.Now,
	}
}

func (r *paginatorRegistry) add(messageID string, view *paginator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.views[messageID] = &registeredPaginator{view: view, lastSeen: r.now()}
}

func (r *paginatorRegistry) get(messageID string) (*paginator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.views[messageID]
	if !ok {
		return nil, false
	}

	entry.lastSeen = r.now()
	return entry.view, true
}

func (r *paginatorRegistry) remove(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.views, messageID)
}

func (r *paginatorRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.views)
}

func (r *paginatorRegistry) pruneStale() {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for messageID, entry := range r.views {
		if now.Sub(entry.lastSeen) > r.ttl {
			delete(r.views, messageID)
		}
	}
}

func (r *paginatorRegistry) startJanitor() {
	if r.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(r.ttl)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.pruneStale()
			case <-r.stop:
				return
			}
		}
	}()
}

func (r *paginatorRegistry) stopJanitor() {
	r.stopped.Do(func() {
		close(r.stop)
	})
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return
	}

	view, ok := b.paginators.get(i.Message.ID)
	if !ok {
		return
	}

	customID := i.MessageComponentData().CustomID

	userID := ""
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	} else if i.User != nil {
		userID = i.User.ID
	}

	// Pressing someone else's buttons does nothing.
	if userID != view.ownerID {
		b.acknowledge(s, i)
		return
	}

	if customID == pageStop {
		b.paginators.remove(i.Message.ID)
		b.respondUpdate(s, i, nil)
		return
	}

	if !view.step(customID) {
		b.acknowledge(s, i)
		return
	}

	page, err := view.pageEmbed()
	if err != nil {
		b.recordError(logrus.Fields{"message_id": i.Message.ID}, err, "building paginator page")
		b.acknowledge(s, i)
		return
	}

	b.respondUpdate(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{page},
		Components: view.components(),
	})
}

// respondUpdate edits the paginated message in place. A nil data strips the
// buttons from the current message, which retires the view.
func (b *Bot) respondUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	if data == nil {
		data = &discordgo.InteractionResponseData{
			Embeds:     i.Message.Embeds,
			Components: []discordgo.MessageComponent{},
		}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
	if err != nil {
		b.recordError(logrus.Fields{"message_id": i.Message.ID}, err, "updating paginated message")
	}
}

func (b *Bot) acknowledge(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		b.recordError(nil, err, "acknowledging interaction")
	}
}
