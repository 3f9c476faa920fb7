package bot

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"quotebot/app/internal/guild"
	"quotebot/app/internal/story"
)

type stubGuilds struct {
	prefixes map[string][]string
	channels map[string][]string
	err      error
}

var _ guild.Repository = (*stubGuilds)(nil)

func (g *stubGuilds) Prefixes(_ context.Context, guildID string) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.prefixes[guildID], nil
}

func (g *stubGuilds) AddPrefix(_ context.Context, guildID, prefix string) error {
	if g.err != nil {
		return g.err
	}
	g.prefixes[guildID] = append(g.prefixes[guildID], prefix)
	return nil
}

func (g *stubGuilds) RemovePrefix(_ context.Context, guildID, prefix string) error {
	if g.err != nil {
		return g.err
	}

	remaining := g.prefixes[guildID][:0]
	for _, existing := range g.prefixes[guildID] {
		if existing != prefix {
			remaining = append(remaining, existing)
		}
	}
	g.prefixes[guildID] = remaining
	return nil
}

func (g *stubGuilds) AllowedChannels(_ context.Context, guildID string) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.channels[guildID], nil
}

func (g *stubGuilds) AllowChannel(_ context.Context, guildID, channelID string) error {
	if g.err != nil {
		return g.err
	}

	for _, existing := range g.channels[guildID] {
		if existing == channelID {
			return guild.ErrChannelAlreadyAllowed
		}
	}

	if g.channels == nil {
		g.channels = make(map[string][]string)
	}
	g.channels[guildID] = append(g.channels[guildID], channelID)
	return nil
}

func (g *stubGuilds) DenyChannel(_ context.Context, guildID, channelID string) error {
	if g.err != nil {
		return g.err
	}

	remaining := g.channels[guildID][:0]
	found := false
	for _, existing := range g.channels[guildID] {
		if existing == channelID {
			found = true
			continue
		}
		remaining = append(remaining, existing)
	}

	if !found {
		return guild.ErrChannelNotAllowed
	}

	g.channels[guildID] = remaining
	return nil
}

func (g *stubGuilds) CountGuildsWithPrefixes(_ context.Context) (int64, error) {
	return int64(len(g.prefixes)), nil
}

type errStub string

func (e errStub) Error() string { return string(e) }

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testBot(t *testing.T, guilds guild.Repository) *Bot {
	t.Helper()

	b, err := New(Options{
		Token:           "test-token",
		DefaultPrefixes: []string{"!"},
		Library:         story.NewLibrary(silentLogger()),
		Guilds:          guilds,
		Logger:          silentLogger(),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	return b
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	library := story.NewLibrary(silentLogger())
	guilds := &stubGuilds{}

	if _, err := New(Options{Library: library, Guilds: guilds}); err == nil {
		t.Fatalf("expected error without token")
	}

	if _, err := New(Options{Token: "x", Guilds: guilds}); err == nil {
		t.Fatalf("expected error without library")
	}

	if _, err := New(Options{Token: "x", Library: library}); err == nil {
		t.Fatalf("expected error without guild repository")
	}
}

func TestMatchPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		content  string
		prefixes []string
		want     string
		wantOK   bool
	}{
		{name: "match", content: "!search goblet", prefixes: []string{"!"}, want: "search goblet", wantOK: true},
		{name: "second prefix", content: "?random_text", prefixes: []string{"!", "?"}, want: "random_text", wantOK: true},
		{name: "no match", content: "hello there", prefixes: []string{"!"}, wantOK: false},
		{name: "empty prefix skipped", content: "hello", prefixes: []string{"", "!"}, wantOK: false},
		{name: "long prefix", content: "acq? search goblet", prefixes: []string{"acq? "}, want: "search goblet", wantOK: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := matchPrefix(tc.content, tc.prefixes)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if ok && got != tc.want {
				t.Fatalf("expected rest %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSplitCommand(t *testing.T) {
	t.Parallel()

	name, args := splitCommand("search the goblet of fire")
	if name != "search" || args != "the goblet of fire" {
		t.Fatalf("unexpected split: %q / %q", name, args)
	}

	name, args = splitCommand("RANDOM_TEXT")
	if name != "random_text" || args != "" {
		t.Fatalf("unexpected split: %q / %q", name, args)
	}

	name, _ = splitCommand("")
	if name != "" {
		t.Fatalf("expected empty command name, got %q", name)
	}
}

func TestPrefixesForGuildWithCustomPrefixes(t *testing.T) {
	t.Parallel()

	b := testBot(t, &stubGuilds{prefixes: map[string][]string{"guild-1": {"$", "%"}}})

	got := b.prefixesFor(context.Background(), "guild-1")
	if len(got) != 2 || got[0] != "$" {
		t.Fatalf("expected custom prefixes, got %v", got)
	}
}

func TestPrefixesForGuildFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	b := testBot(t, &stubGuilds{prefixes: map[string][]string{}})

	got := b.prefixesFor(context.Background(), "guild-1")
	if len(got) != 1 || got[0] != "!" {
		t.Fatalf("expected default prefixes, got %v", got)
	}
}

func TestPrefixesForRepositoryError(t *testing.T) {
	t.Parallel()

	b := testBot(t, &stubGuilds{err: errStub("boom")})

	got := b.prefixesFor(context.Background(), "guild-1")
	if len(got) != 1 || got[0] != "!" {
		t.Fatalf("expected default prefixes on error, got %v", got)
	}
}

func TestPrefixesForDirectMessage(t *testing.T) {
	t.Parallel()

	b := testBot(t, &stubGuilds{})

	got := b.prefixesFor(context.Background(), "")
	if len(got) != 1 || got[0] != dmPrefix {
		t.Fatalf("expected DM prefix, got %v", got)
	}
}

func TestChannelAllowed(t *testing.T) {
	t.Parallel()

	b := testBot(t, &stubGuilds{channels: map[string][]string{
		"guild-1": {"chan-1", "chan-2"},
	}})

	ctx := context.Background()

	allowed, err := b.channelAllowed(ctx, "guild-1", "chan-2")
	if err != nil {
		t.Fatalf("channelAllowed returned error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected listed channel to be allowed")
	}

	allowed, err = b.channelAllowed(ctx, "guild-1", "chan-3")
	if err != nil {
		t.Fatalf("channelAllowed returned error: %v", err)
	}
	if allowed {
		t.Fatalf("expected unlisted channel to be denied")
	}

	// No configuration means no restriction.
	allowed, err = b.channelAllowed(ctx, "guild-2", "chan-9")
	if err != nil {
		t.Fatalf("channelAllowed returned error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected unconfigured guild to allow all channels")
	}
}

func TestChannelScope(t *testing.T) {
	t.Parallel()

	cases := []struct {
		arg    string
		want   string
		wantOK bool
	}{
		{arg: "", want: scopeThis, wantOK: true},
		{arg: "this", want: scopeThis, wantOK: true},
		{arg: "THIS", want: scopeThis, wantOK: true},
		{arg: " all ", want: scopeAll, wantOK: true},
		{arg: "everywhere", wantOK: false},
	}

	for _, tc := range cases {
		got, ok := channelScope(tc.arg)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("channelScope(%q) = %q, %v; want %q, %v", tc.arg, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestEditChannelsAllows(t *testing.T) {
	t.Parallel()

	guilds := &stubGuilds{channels: map[string][]string{}}
	b := testBot(t, guilds)

	edit := channelEdit{apply: b.guilds.AllowChannel, tolerated: guild.ErrChannelAlreadyAllowed}

	ctx := context.Background()
	if err := b.editChannels(ctx, "guild-1", []string{"chan-1", "chan-2"}, edit); err != nil {
		t.Fatalf("editChannels returned error: %v", err)
	}

	if got := guilds.channels["guild-1"]; len(got) != 2 {
		t.Fatalf("expected 2 allowed channels, got %v", got)
	}

	// Re-allowing a channel is not an error.
	if err := b.editChannels(ctx, "guild-1", []string{"chan-1"}, edit); err != nil {
		t.Fatalf("expected duplicate allow to be tolerated, got %v", err)
	}

	if got := guilds.channels["guild-1"]; len(got) != 2 {
		t.Fatalf("expected channel list unchanged, got %v", got)
	}
}

func TestEditChannelsDenies(t *testing.T) {
	t.Parallel()

	guilds := &stubGuilds{channels: map[string][]string{
		"guild-1": {"chan-1", "chan-2"},
	}}
	b := testBot(t, guilds)

	edit := channelEdit{apply: b.guilds.DenyChannel, tolerated: guild.ErrChannelNotAllowed}

	ctx := context.Background()
	if err := b.editChannels(ctx, "guild-1", []string{"chan-1", "chan-9"}, edit); err != nil {
		t.Fatalf("expected missing channel to be tolerated, got %v", err)
	}

	if got := guilds.channels["guild-1"]; len(got) != 1 || got[0] != "chan-2" {
		t.Fatalf("expected [chan-2], got %v", got)
	}
}

func TestEditChannelsPropagatesRepositoryErrors(t *testing.T) {
	t.Parallel()

	b := testBot(t, &stubGuilds{err: errStub("boom")})

	edit := channelEdit{apply: b.guilds.AllowChannel, tolerated: guild.ErrChannelAlreadyAllowed}

	if err := b.editChannels(context.Background(), "guild-1", []string{"chan-1"}, edit); err == nil {
		t.Fatalf("expected repository error to propagate")
	}
}

func TestIsBotOwner(t *testing.T) {
	t.Parallel()

	b := testBot(t, &stubGuilds{})

	if b.isBotOwner("someone") {
		t.Fatalf("expected owner check to fail with no owner configured")
	}

	b.ownerID = "owner-1"

	if !b.isBotOwner("owner-1") {
		t.Fatalf("expected configured owner to pass")
	}

	if b.isBotOwner("someone-else") {
		t.Fatalf("expected other users to fail")
	}
}
