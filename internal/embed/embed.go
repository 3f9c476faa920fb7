// Package embed builds the Discord embeds the bot sends: paginated quote
// pages with a content field, a page footer and an optional story author
// block. Builders are fluent and defer validation errors until Build.
package embed

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"
)

const (
	emojiIconURLTemplate = "https://cdn.discordapp.com/emojis/%s.webp?size=128&quality=lossless"

	// missingTitle is shown when a page has no content to display.
	missingTitle = "N/A"
)

// ErrInvalidPageNumbers indicates footer page numbers that cannot describe a
// real pagination state (negative values, or a current page past the last).
var ErrInvalidPageNumbers = eris.New("invalid page numbers")

// PageContent holds the displayable content of one embed page.
type PageContent struct {
	// Title labels the page as a whole, e.g. the volume the quote is from.
	Title string
	// ChapterName names the single content field.
	ChapterName string
	// Quote is the field value, the quoted passage itself.
	Quote string
}

// StoryMetadata identifies the story a quote page belongs to. It feeds the
// embed author block: name, link and an emoji icon.
type StoryMetadata struct {
	Title   string
	Link    string
	EmojiID string
}

// EmojiIconURL returns the CDN image URL for a custom emoji identifier.
func EmojiIconURL(emojiID string) string {
	return fmt.Sprintf(emojiIconURLTemplate, emojiID)
}

type settings struct {
	content    *PageContent
	hasContent bool

	footer    []int
	hasFooter bool

	story    *StoryMetadata
	hasStory bool

	color       int
	hasColor    bool
	description string
	hasDesc     bool
}

// Option configures the initial state of a paginated embed. Omitting an
// option leaves the corresponding region untouched; passing an option with a
// nil value is an explicit removal. The two are not the same thing.
type Option func(*settings)

// WithPageContent sets (or, when content is nil, clears) the page content
// during construction.
func WithPageContent(content *PageContent) Option {
	return func(s *settings) {
		s.content = content
		s.hasContent = true
	}
}

// WithPageFooter sets the page footer during construction.
func WithPageFooter(current, max int) Option {
	return func(s *settings) {
		s.footer = []int{current, max}
		s.hasFooter = true
	}
}

// WithStory sets (or, when story is nil, removes) the author block during
// construction. Only StoryQuoteEmbed honours it.
func WithStory(story *StoryMetadata) Option {
	return func(s *settings) {
		s.story = story
		s.hasStory = true
	}
}

// WithColor sets the embed accent colour.
func WithColor(color int) Option {
	return func(s *settings) {
		s.color = color
		s.hasColor = true
	}
}

// WithDescription sets the embed description text.
func WithDescription(description string) Option {
	return func(s *settings) {
		s.description = description
		s.hasDesc = true
	}
}

// PaginatedEmbed decorates a Discord message embed with page content and a
// "Page x/y" footer. All setters return the receiver so calls can be chained;
// the first validation failure is remembered and reported by Build.
type PaginatedEmbed struct {
	embed *discordgo.MessageEmbed
	err   error
}

// NewPaginated constructs a paginated embed and applies the given options.
func NewPaginated(opts ...Option) *PaginatedEmbed {
	p := &PaginatedEmbed{embed: &discordgo.MessageEmbed{}}
	p.apply(opts)
	return p
}

func (p *PaginatedEmbed) apply(opts []Option) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if s.hasColor {
		p.embed.Color = s.color
	}
	if s.hasDesc {
		p.embed.Description = s.description
	}
	if s.hasContent {
		p.SetPageContent(s.content)
	}
	if s.hasFooter {
		p.SetPageFooter(s.footer[0], s.footer[1])
	}
}

// SetPageContent sets the content region for this embed page.
//
// A nil content marks the page as empty: the title becomes "N/A" and any
// existing content field is removed. Otherwise the title is taken from the
// content and the single content field is replaced, so repeated calls never
// stack fields.
func (p *PaginatedEmbed) SetPageContent(content *PageContent) *PaginatedEmbed {
	if content == nil {
		p.embed.Title = missingTitle
		if len(p.embed.Fields) > 0 {
			p.embed.Fields = p.embed.Fields[1:]
		}
		return p
	}

	p.embed.Title = content.Title
	if len(p.embed.Fields) > 0 {
		p.embed.Fields = p.embed.Fields[1:]
	}
	p.embed.Fields = append([]*discordgo.MessageEmbedField{{
		Name:  content.ChapterName,
		Value: content.Quote,
	}}, p.embed.Fields...)

	return p
}

// SetPageFooter sets the "Page current/max" footer.
//
// Called with no arguments both numbers default to 1. Otherwise exactly two
// arguments are expected: the current page and the page count. Negative
// numbers, a current page past the count, or any other argument shape record
// ErrInvalidPageNumbers for Build to report.
func (p *PaginatedEmbed) SetPageFooter(pages ...int) *PaginatedEmbed {
	current, max := 1, 1

	switch len(pages) {
	case 0:
	case 2:
		current, max = pages[0], pages[1]
	default:
		p.fail(eris.Wrapf(ErrInvalidPageNumbers, "expected current and max, got %d numbers", len(pages)))
		return p
	}

	if current < 0 || max < 0 {
		p.fail(eris.Wrapf(ErrInvalidPageNumbers, "negative page number %d/%d", current, max))
		return p
	}
	if current > max {
		p.fail(eris.Wrapf(ErrInvalidPageNumbers, "current page %d past max %d", current, max))
		return p
	}

	p.embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page %d/%d", current, max),
	}

	return p
}

// SetDescription replaces the embed description.
func (p *PaginatedEmbed) SetDescription(text string) *PaginatedEmbed {
	p.embed.Description = text
	return p
}

// SetFooterText replaces the footer with free-form text, bypassing the page
// numbering format.
func (p *PaginatedEmbed) SetFooterText(text string) *PaginatedEmbed {
	p.embed.Footer = &discordgo.MessageEmbedFooter{Text: text}
	return p
}

// Err reports the first validation failure recorded by a setter, if any.
func (p *PaginatedEmbed) Err() error {
	return p.err
}

// Build returns the finished Discord embed, or the first setter error.
func (p *PaginatedEmbed) Build() (*discordgo.MessageEmbed, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.embed, nil
}

func (p *PaginatedEmbed) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// StoryQuoteEmbed is a paginated embed for a story quote: in addition to the
// page regions it carries an author block identifying the source story.
type StoryQuoteEmbed struct {
	PaginatedEmbed
}

// NewStoryQuote constructs a story quote embed and applies the given options.
func NewStoryQuote(opts ...Option) *StoryQuoteEmbed {
	q := &StoryQuoteEmbed{PaginatedEmbed{embed: &discordgo.MessageEmbed{}}}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if s.hasColor {
		q.embed.Color = s.color
	}
	if s.hasDesc {
		q.embed.Description = s.description
	}
	if s.hasContent {
		q.SetPageContent(s.content)
	}
	if s.hasFooter {
		q.SetPageFooter(s.footer[0], s.footer[1])
	}
	if s.hasStory {
		q.SetPageAuthor(s.story)
	}

	return q
}

// SetPageAuthor sets the author block for this embed page from the story
// metadata. A nil story removes the author block entirely.
func (q *StoryQuoteEmbed) SetPageAuthor(story *StoryMetadata) *StoryQuoteEmbed {
	if story == nil {
		q.embed.Author = nil
		return q
	}

	q.embed.Author = &discordgo.MessageEmbedAuthor{
		Name:    story.Title,
		URL:     story.Link,
		IconURL: EmojiIconURL(story.EmojiID),
	}

	return q
}

// SetPageContent is the chain-preserving wrapper over PaginatedEmbed.
func (q *StoryQuoteEmbed) SetPageContent(content *PageContent) *StoryQuoteEmbed {
	q.PaginatedEmbed.SetPageContent(content)
	return q
}

// SetPageFooter is the chain-preserving wrapper over PaginatedEmbed.
func (q *StoryQuoteEmbed) SetPageFooter(pages ...int) *StoryQuoteEmbed {
	q.PaginatedEmbed.SetPageFooter(pages...)
	return q
}

// SetDescription is the chain-preserving wrapper over PaginatedEmbed.
func (q *StoryQuoteEmbed) SetDescription(text string) *StoryQuoteEmbed {
	q.PaginatedEmbed.SetDescription(text)
	return q
}

// SetFooterText is the chain-preserving wrapper over PaginatedEmbed.
func (q *StoryQuoteEmbed) SetFooterText(text string) *StoryQuoteEmbed {
	q.PaginatedEmbed.SetFooterText(text)
	return q
}

// Clone returns an independent copy of the embed, so a per-story template can
// be stamped out once per page without later pages mutating earlier ones.
func (q *StoryQuoteEmbed) Clone() *StoryQuoteEmbed {
	copied := *q.embed

	if q.embed.Footer != nil {
		footer := *q.embed.Footer
		copied.Footer = &footer
	}
	if q.embed.Author != nil {
		author := *q.embed.Author
		copied.Author = &author
	}
	if len(q.embed.Fields) > 0 {
		copied.Fields = make([]*discordgo.MessageEmbedField, len(q.embed.Fields))
		for i, field := range q.embed.Fields {
			f := *field
			copied.Fields[i] = &f
		}
	}

	return &StoryQuoteEmbed{PaginatedEmbed{embed: &copied, err: q.err}}
}
