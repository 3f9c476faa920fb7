package embed

import (
	"testing"

	"github.com/rotisserie/eris"
)

func TestSetPageContentNilClearsPage(t *testing.T) {
	t.Parallel()

	p := NewPaginated(WithPageContent(&PageContent{
		Title:       "Volume One",
		ChapterName: "Chapter 1",
		Quote:       "some quote",
	}))

	built, err := p.SetPageContent(nil).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if built.Title != "N/A" {
		t.Fatalf("expected placeholder title %q, got %q", "N/A", built.Title)
	}

	if len(built.Fields) != 0 {
		t.Fatalf("expected no fields after clearing, got %d", len(built.Fields))
	}
}

func TestSetPageContentReplacesField(t *testing.T) {
	t.Parallel()

	p := NewPaginated().
		SetPageContent(&PageContent{Title: "Volume One", ChapterName: "Chapter 1", Quote: "first"}).
		SetPageContent(&PageContent{Title: "Volume Two", ChapterName: "Chapter 9", Quote: "second"})

	built, err := p.Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if built.Title != "Volume Two" {
		t.Fatalf("expected title %q, got %q", "Volume Two", built.Title)
	}

	if len(built.Fields) != 1 {
		t.Fatalf("expected exactly one field, got %d", len(built.Fields))
	}

	if built.Fields[0].Name != "Chapter 9" || built.Fields[0].Value != "second" {
		t.Fatalf("unexpected field %q=%q", built.Fields[0].Name, built.Fields[0].Value)
	}
}

func TestSetPageFooterDefaults(t *testing.T) {
	t.Parallel()

	built, err := NewPaginated().SetPageFooter().Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if built.Footer == nil || built.Footer.Text != "Page 1/1" {
		t.Fatalf("expected footer 'Page 1/1', got %+v", built.Footer)
	}
}

func TestSetPageFooterExplicit(t *testing.T) {
	t.Parallel()

	built, err := NewPaginated().SetPageFooter(3, 10).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if built.Footer == nil || built.Footer.Text != "Page 3/10" {
		t.Fatalf("expected footer 'Page 3/10', got %+v", built.Footer)
	}
}

func TestSetPageFooterAllowsEmptyResultState(t *testing.T) {
	t.Parallel()

	built, err := NewPaginated().SetPageFooter(0, 0).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if built.Footer == nil || built.Footer.Text != "Page 0/0" {
		t.Fatalf("expected footer 'Page 0/0', got %+v", built.Footer)
	}
}

func TestSetPageFooterRejectsInvalidNumbers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		pages []int
	}{
		{name: "negative current", pages: []int{-1, 3}},
		{name: "negative max", pages: []int{1, -3}},
		{name: "current past max", pages: []int{4, 3}},
		{name: "wrong arity", pages: []int{4}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := NewPaginated().SetPageFooter(tc.pages...)

			if _, err := p.Build(); !eris.Is(err, ErrInvalidPageNumbers) {
				t.Fatalf("expected ErrInvalidPageNumbers, got %v", err)
			}
		})
	}
}

func TestBuildKeepsFirstError(t *testing.T) {
	t.Parallel()

	p := NewPaginated().
		SetPageFooter(5, 1).
		SetPageFooter(1, 5)

	if _, err := p.Build(); !eris.Is(err, ErrInvalidPageNumbers) {
		t.Fatalf("expected first error to stick, got %v", err)
	}
}

func TestSetPageAuthorFromStory(t *testing.T) {
	t.Parallel()

	built, err := NewStoryQuote().
		SetPageAuthor(&StoryMetadata{Title: "T", Link: "L", EmojiID: "123"}).
		Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if built.Author == nil {
		t.Fatalf("expected author block to be set")
	}

	if built.Author.Name != "T" {
		t.Errorf("expected author name %q, got %q", "T", built.Author.Name)
	}

	if built.Author.URL != "L" {
		t.Errorf("expected author url %q, got %q", "L", built.Author.URL)
	}

	wantIcon := "https://cdn.discordapp.com/emojis/123.webp?size=128&quality=lossless"
	if built.Author.IconURL != wantIcon {
		t.Errorf("expected author icon %q, got %q", wantIcon, built.Author.IconURL)
	}
}

func TestSetPageAuthorNilRemovesBlock(t *testing.T) {
	t.Parallel()

	q := NewStoryQuote(WithStory(&StoryMetadata{Title: "T", Link: "L", EmojiID: "1"}))

	built, err := q.SetPageAuthor(nil).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if built.Author != nil {
		t.Fatalf("expected author block to be removed, got %+v", built.Author)
	}
}

func TestNewStoryQuoteAppliesOptions(t *testing.T) {
	t.Parallel()

	built, err := NewStoryQuote(
		WithColor(0xdb05db),
		WithStory(&StoryMetadata{Title: "A Story", Link: "https://example.org/story", EmojiID: "42"}),
		WithPageContent(&PageContent{Title: "Volume Three", ChapterName: "Chapter 2", Quote: "a line"}),
		WithPageFooter(1, 4),
	).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if built.Color != 0xdb05db {
		t.Errorf("expected color 0xdb05db, got %#x", built.Color)
	}

	if built.Author == nil || built.Author.Name != "A Story" {
		t.Errorf("expected author from story metadata, got %+v", built.Author)
	}

	if built.Title != "Volume Three" {
		t.Errorf("expected title from content, got %q", built.Title)
	}

	if built.Footer == nil || built.Footer.Text != "Page 1/4" {
		t.Errorf("expected footer 'Page 1/4', got %+v", built.Footer)
	}
}

func TestOmittedOptionsLeaveRegionsUntouched(t *testing.T) {
	t.Parallel()

	built, err := NewStoryQuote().Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if built.Title != "" || built.Footer != nil || built.Author != nil || len(built.Fields) != 0 {
		t.Fatalf("expected pristine embed, got %+v", built)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	template := NewStoryQuote(
		WithStory(&StoryMetadata{Title: "T", Link: "L", EmojiID: "1"}),
		WithPageContent(&PageContent{Title: "V", ChapterName: "C", Quote: "Q"}),
		WithPageFooter(1, 2),
	)

	page := template.Clone().
		SetPageContent(&PageContent{Title: "V2", ChapterName: "C2", Quote: "Q2"}).
		SetPageFooter(2, 2)

	original, err := template.Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if original.Title != "V" || original.Footer.Text != "Page 1/2" {
		t.Fatalf("template mutated by clone edits: %+v", original)
	}

	cloned, err := page.Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if cloned.Title != "V2" || cloned.Footer.Text != "Page 2/2" {
		t.Fatalf("clone missing edits: %+v", cloned)
	}

	if cloned.Author == nil || cloned.Author.Name != "T" {
		t.Fatalf("clone lost author block: %+v", cloned.Author)
	}
}
