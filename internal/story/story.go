// Package story holds the in-memory story library: metadata for each indexed
// story plus its full text, with chapter and volume indexes used to label
// quotes. The library is loaded once at startup and is read-only afterwards,
// so concurrent readers need no locking.
package story

import (
	"strconv"

	"github.com/rotisserie/eris"

	"quotebot/app/internal/embed"
)

// ErrUnknownStory indicates a story acronym the library has no record for.
var ErrUnknownStory = eris.New("unknown story")

// ErrNoStories indicates the library holds no stories with usable text.
var ErrNoStories = eris.New("no stories available")

// Info describes one story as recorded in story_info.json.
type Info struct {
	Acronym string `json:"acronym"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Link    string `json:"link"`
	EmojiID int64  `json:"emoji_id"`
}

// Metadata converts the story record into the embed author metadata.
func (i Info) Metadata() *embed.StoryMetadata {
	return &embed.StoryMetadata{
		Title:   i.Title,
		Link:    i.Link,
		EmojiID: strconv.FormatInt(i.EmojiID, 10),
	}
}

// Quote is a single search or random-pick result: the quoted passage and the
// volume and chapter labels it was found under.
type Quote struct {
	Volume  string
	Chapter string
	Text    string
}

// Content converts the quote into embed page content.
func (q Quote) Content() *embed.PageContent {
	return &embed.PageContent{
		Title:       q.Volume,
		ChapterName: q.Chapter,
		Quote:       q.Text,
	}
}
