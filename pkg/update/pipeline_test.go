package update

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/StudioSol/set"
	"github.com/raykavin/dogewatch/pkg/core"
	zerologger "github.com/raykavin/dogewatch/pkg/logger/zerolog"
	"github.com/raykavin/dogewatch/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubStorage struct {
	subscribers *set.LinkedHashSetINT64
	saves       int
}

func (s *stubStorage) Load() (*set.LinkedHashSetINT64, error) {
	return s.subscribers, nil
}

func (s *stubStorage) Save(subscribers *set.LinkedHashSetINT64) error {
	s.saves++
	s.subscribers = subscribers
	return nil
}

type stubQuotes struct {
	quote *core.Quote
	err   error
	calls int
}

func (s *stubQuotes) Quote(_ context.Context) (*core.Quote, error) {
	s.calls++
	return s.quote, s.err
}

type stubNews struct {
	articles []core.Article
	err      error
	calls    int
}

func (s *stubNews) Latest(_ context.Context) ([]core.Article, error) {
	s.calls++
	return s.articles, s.err
}

type recordingSender struct {
	sent     map[int64][]string
	goneChat int64
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(map[int64][]string)}
}

func (s *recordingSender) Send(chatID int64, text string) error {
	return s.record(chatID, text)
}

func (s *recordingSender) SendMarkdown(chatID int64, text string) error {
	return s.record(chatID, text)
}

func (s *recordingSender) record(chatID int64, text string) error {
	if s.goneChat != 0 && chatID == s.goneChat {
		return fmt.Errorf("%w: chat not found", core.ErrRecipientGone)
	}
	s.sent[chatID] = append(s.sent[chatID], text)
	return nil
}

func nopLogger() *zerologger.Adapter {
	nop := zerolog.Nop()
	return zerologger.NewAdapter(&nop)
}

func testSettings(mode core.UpdateMode) *core.Settings {
	return &core.Settings{
		Asset: core.AssetSettings{Name: "Dogecoin", Ticker: "DOGE", Currency: "USD"},
		Update: core.UpdateSettings{
			Mode:   mode,
			Window: 6 * time.Hour,
		},
	}
}

func marketCap(v float64) *float64 { return &v }

func testArticles() []core.Article {
	return []core.Article{
		{Title: "Dogecoin jumps", Link: "https://example.com/1", PubDate: "2025-03-01 10:00:00"},
		{Title: "Dogecoin dips", Link: "https://example.com/2", PubDate: "2025-03-01 01:00:00"},
	}
}

func TestPipeline_PrunesGoneRecipient(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "subscribers.txt"))
	require.NoError(t, store.Save(set.NewLinkedHashSetINT64(1, 2, 3)))

	sender := newRecordingSender()
	sender.goneChat = 2

	quotes := &stubQuotes{quote: &core.Quote{Price: 0.1, PercentChange24h: 1, MarketCap: marketCap(1000)}}
	news := &stubNews{articles: testArticles()}

	pipeline := New(testSettings(core.UpdateModeLatest), store, quotes, news, sender, nopLogger())
	require.NoError(t, pipeline.Run(context.Background()))

	// The two healthy subscribers got price, header, and one article each.
	require.Len(t, sender.sent[1], 3)
	require.Len(t, sender.sent[3], 3)
	require.Empty(t, sender.sent[2])

	// The gone chat is absent from the persisted state.
	persisted, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 2, persisted.Length())
	require.False(t, persisted.InArray(2))
	require.True(t, persisted.InArray(1))
	require.True(t, persisted.InArray(3))
}

func TestPipeline_NoSubscribersIsNoOp(t *testing.T) {
	store := &stubStorage{subscribers: set.NewLinkedHashSetINT64()}
	sender := newRecordingSender()
	quotes := &stubQuotes{quote: &core.Quote{Price: 0.1}}
	news := &stubNews{articles: testArticles()}

	pipeline := New(testSettings(core.UpdateModeLatest), store, quotes, news, sender, nopLogger())
	require.NoError(t, pipeline.Run(context.Background()))

	require.Empty(t, sender.sent)
	require.Equal(t, 0, store.saves)
	require.Equal(t, 0, quotes.calls)
	require.Equal(t, 0, news.calls)
}

func TestPipeline_NoArticlesSkipsDelivery(t *testing.T) {
	store := &stubStorage{subscribers: set.NewLinkedHashSetINT64(1)}
	sender := newRecordingSender()

	pipeline := New(
		testSettings(core.UpdateModeLatest),
		store,
		&stubQuotes{quote: &core.Quote{Price: 0.1}},
		&stubNews{},
		sender,
		nopLogger(),
	)
	require.NoError(t, pipeline.Run(context.Background()))

	require.Empty(t, sender.sent)
	require.Equal(t, 0, store.saves)
}

func TestPipeline_QuoteFailureDegradesToNoData(t *testing.T) {
	store := &stubStorage{subscribers: set.NewLinkedHashSetINT64(1)}
	sender := newRecordingSender()

	pipeline := New(
		testSettings(core.UpdateModeLatest),
		store,
		&stubQuotes{err: fmt.Errorf("upstream down")},
		&stubNews{articles: testArticles()},
		sender,
		nopLogger(),
	)
	require.NoError(t, pipeline.Run(context.Background()))

	require.Len(t, sender.sent[1], 3)
	require.Equal(t, "Sorry, couldn't fetch Dogecoin price data at the moment.", sender.sent[1][0])
}

func TestPipeline_WindowModeFiltersByRecency(t *testing.T) {
	store := &stubStorage{subscribers: set.NewLinkedHashSetINT64(1)}
	sender := newRecordingSender()

	now, err := time.Parse("2006-01-02 15:04:05", "2025-03-01 12:00:00")
	require.NoError(t, err)

	pipeline := New(
		testSettings(core.UpdateModeWindow),
		store,
		&stubQuotes{quote: &core.Quote{Price: 0.1}},
		&stubNews{articles: testArticles()},
		sender,
		nopLogger(),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, pipeline.Run(context.Background()))

	// Only the article published within the 6h window is delivered.
	messages := sender.sent[1]
	require.Len(t, messages, 3)
	require.Contains(t, messages[2], "Dogecoin jumps")
}

func TestPipeline_AllModeSendsEverything(t *testing.T) {
	store := &stubStorage{subscribers: set.NewLinkedHashSetINT64(1)}
	sender := newRecordingSender()

	pipeline := New(
		testSettings(core.UpdateModeAll),
		store,
		&stubQuotes{quote: &core.Quote{Price: 0.1}},
		&stubNews{articles: testArticles()},
		sender,
		nopLogger(),
	)
	require.NoError(t, pipeline.Run(context.Background()))

	require.Len(t, sender.sent[1], 4)
}

func TestPipeline_SeenStoreDedupsAcrossCycles(t *testing.T) {
	store := &stubStorage{subscribers: set.NewLinkedHashSetINT64(1)}
	sender := newRecordingSender()

	seen, err := storage.SeenFromMemory(time.Hour)
	require.NoError(t, err)
	defer seen.Close()

	pipeline := New(
		testSettings(core.UpdateModeLatest),
		store,
		&stubQuotes{quote: &core.Quote{Price: 0.1}},
		&stubNews{articles: testArticles()},
		sender,
		nopLogger(),
		WithSeenStore(seen),
	)

	require.NoError(t, pipeline.Run(context.Background()))
	first := len(sender.sent[1])
	require.Equal(t, 3, first)

	// Second cycle: the first article is seen, so the next one goes out.
	require.NoError(t, pipeline.Run(context.Background()))
	require.Len(t, sender.sent[1], first+3)
	require.Contains(t, sender.sent[1][first+2], "Dogecoin dips")

	// Third cycle: everything seen, nothing sent.
	require.NoError(t, pipeline.Run(context.Background()))
	require.Len(t, sender.sent[1], first+3)
}
