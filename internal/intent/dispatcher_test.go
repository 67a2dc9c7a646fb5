package intent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Travia/internal/knowledge"
	"Travia/internal/scoring"
	"Travia/internal/session"
	"Travia/internal/storage"
	"Travia/internal/transport"
)

type recordingSink struct {
	entries []storage.HistoryEntry
	err     error
}

func (s *recordingSink) RecordSearch(_ context.Context, e storage.HistoryEntry) error {
	s.entries = append(s.entries, e)
	return s.err
}

func newTestDispatcher(t *testing.T, docs []knowledge.Document, sink HistorySink) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(Options{
		Knowledge: knowledge.StaticSource(docs),
		History:   sink,
		Rand:      rand.NewSource(1),
	})
	require.NoError(t, err)
	return d
}

func delhiAgra() []transport.Option {
	return []transport.Option{{
		ID: "train_12002", Mode: transport.ModeTrain, Name: "Taj Express",
		Origin: "Delhi", Destination: "Agra",
		DurationMins: 180, Price: 300, SeatsAvailable: 40, Rating: 4.2,
	}}
}

func testCatalog() []transport.Option {
	return []transport.Option{
		{ID: "train_1", Mode: transport.ModeTrain, Name: "Taj Express", Origin: "Delhi", Destination: "Agra",
			DurationMins: 300, Price: 300, SeatsAvailable: 10, Rating: 4.0},
		{ID: "flight_1", Mode: transport.ModeFlight, Name: "AI 401", Origin: "Delhi", Destination: "Agra",
			DurationMins: 60, Price: 2500, SeatsAvailable: 10, Rating: 4.2},
		{ID: "flight_2", Mode: transport.ModeFlight, Name: "6E 221", Origin: "Mumbai", Destination: "Goa",
			DurationMins: 75, Price: 3000, SeatsAvailable: 4, Rating: 4.6},
		{ID: "bus_1", Mode: transport.ModeBus, Name: "Shivneri", Origin: "Pune", Destination: "Mumbai",
			DurationMins: 200, Price: 400, SeatsAvailable: 25, Rating: 3.9},
	}
}

func TestHandle_GreetingWithoutName(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "hello", nil)

	assert.Contains(t, greetingReplies, reply)
	assert.Empty(t, st.Name)
	assert.Equal(t, "hello", st.LastQuery)
}

func TestHandle_GreetingIsDeterministicForASeed(t *testing.T) {
	a := newTestDispatcher(t, nil, nil)
	b := newTestDispatcher(t, nil, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t,
			a.Handle(context.Background(), &session.State{}, "hey", nil),
			b.Handle(context.Background(), &session.State{}, "hey", nil))
	}
}

func TestHandle_NameCapture(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "my name is Asha please help", nil)
	assert.Contains(t, reply, "Asha")
	assert.Equal(t, "Asha", st.Name)

	reply = d.Handle(context.Background(), st, "hello", nil)
	assert.Equal(t, namedGreeting("Asha"), reply)
}

func TestHandle_NameCaptureNormalizesCase(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	d.Handle(context.Background(), st, "My name is rAVI.", nil)
	assert.Equal(t, "Ravi", st.Name)
}

func TestHandle_NameCaptureWithoutName(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "my name is", nil)
	assert.Equal(t, nameReply(""), reply)
	assert.Empty(t, st.Name)
}

func TestHandle_RouteQuery(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDispatcher(t, nil, sink)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "cheapest train from Delhi to Agra", delhiAgra())

	assert.Contains(t, reply, "Mode: **TRAIN**")
	assert.Contains(t, reply, "₹300")
	require.NotNil(t, st.LastBest)
	assert.Equal(t, "train_12002", st.LastBest.ID)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, storage.HistoryEntry{
		Origin: "Delhi", Destination: "Agra", Mode: "train", Priority: "price",
	}, sink.entries[0])
}

func TestHandle_BookingConfirmation(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDispatcher(t, nil, sink)
	st := &session.State{}
	d.Handle(context.Background(), st, "cheapest train from Delhi to Agra", delhiAgra())

	reply := d.Handle(context.Background(), st, "yes book it", delhiAgra())

	assert.Contains(t, reply, "Taj Express (TRAIN)")
	assert.Contains(t, reply, "from **Delhi** to **Agra**")
	require.NotNil(t, st.LastBest, "booking keeps the remembered option")

	again := d.Handle(context.Background(), st, "ok confirm", delhiAgra())
	assert.Equal(t, reply, again)

	require.Len(t, sink.entries, 3)
	assert.Equal(t, storage.PriorityBooking, sink.entries[1].Priority)
}

func TestHandle_AffirmationWithoutRememberedOption(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "yes", nil)
	assert.Equal(t, fallbackReply, reply)
}

func TestHandle_CheapestWithEmptyCatalog(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "cheapest flight", nil)

	assert.Equal(t, noDataReply, reply)
	assert.Nil(t, st.LastBest)
}

func TestHandle_CheapestCatalogWide(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "show me the cheapest ticket", testCatalog())

	assert.True(t, strings.HasPrefix(reply, cheapestIntro))
	require.NotNil(t, st.LastBest)
	assert.Equal(t, "train_1", st.LastBest.ID)
}

func TestHandle_KnowledgeQuery(t *testing.T) {
	docs := []knowledge.Document{
		{Title: "night_travel", Content: "Prefer lit platforms and keep your phone charged."},
		{Title: "baggage_rules", Content: "Liquids above 100 ml go in checked baggage. Cabin rules differ for flights."},
	}
	d := newTestDispatcher(t, docs, nil)

	reply := d.Handle(context.Background(), &session.State{}, "baggage rules for flights", nil)

	assert.True(t, strings.HasPrefix(reply, "📘 **Baggage Rules**\n\n"+docs[1].Content), reply)
}

func TestHandle_KnowledgeQueryWithoutHits(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)

	reply := d.Handle(context.Background(), &session.State{}, "is it safe at night", nil)
	assert.Equal(t, safetyTipsReply, reply)
}

func TestHandle_FixedReplies(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"identity", "what is your name?", identityReply},
		{"rush", "is there a festival rush", rushReply},
		{"long weekend", "travelling on the long weekend", rushReply},
		{"platforms", "which website should I use", platformsReply()},
		{"prepare", "help me prepare for my trip", prepareReply},
		{"thanks", "thanks a lot", thanksReply},
		{"thank you", "thank you so much", thanksReply},
		{"fallback", "what can you do", fallbackReply},
		{"greeting is word aware", "delhi", fallbackReply},
	}
	d := newTestDispatcher(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Handle(context.Background(), &session.State{}, tt.message, nil))
		})
	}
}

func TestHandle_PlatformsListsProviders(t *testing.T) {
	reply := platformsReply()
	assert.Contains(t, reply, "Train: IRCTC, MakeMyTrip Train, Goibibo Train, PayTM Rail")
	assert.Contains(t, reply, "Bike: Rapido")
}

func TestHandle_EmptyMessage(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	best := delhiAgra()[0]
	st := &session.State{LastQuery: "earlier", LastBest: &best, Name: "Asha"}

	reply := d.Handle(context.Background(), st, "   ", delhiAgra())

	assert.Equal(t, emptyReply, reply)
	assert.Equal(t, "", st.LastQuery)
	assert.Same(t, &best, st.LastBest)
	assert.Equal(t, "Asha", st.Name)
}

func TestHandle_RoutePriorities(t *testing.T) {
	tests := []struct {
		message string
		wantID  string
	}{
		{"cheapest from Delhi to Agra", "train_1"},
		{"fastest from Delhi to Agra", "flight_1"},
		{"flight from Delhi to Agra", "flight_1"},
		{"from Delhi to Agra under 1000", "train_1"},
	}
	d := newTestDispatcher(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			st := &session.State{}
			d.Handle(context.Background(), st, tt.message, testCatalog())
			require.NotNil(t, st.LastBest)
			assert.Equal(t, tt.wantID, st.LastBest.ID)
		})
	}
}

func TestHandle_RouteOverBudget(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "flight from Delhi to Agra under 1000", testCatalog())

	assert.Equal(t, overBudgetReply("Delhi", "Agra", 1000), reply)
	assert.Nil(t, st.LastBest)
}

func TestHandle_RouteNotFound(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "train from Chennai to Madurai", testCatalog())

	assert.Equal(t, notFoundReply("chennai", "madurai", transport.ModeTrain), reply)
	assert.Nil(t, st.LastBest)
}

func TestHandle_HistoryFailureIsSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	d := newTestDispatcher(t, nil, sink)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "cheapest train from Delhi to Agra", delhiAgra())

	assert.Contains(t, reply, "Best Option Found")
	assert.NotNil(t, st.LastBest)
}

// Asking for the top-ranked option's own route yields that option again.
func TestHandle_RoundTripsTopPick(t *testing.T) {
	keywords := map[scoring.Priority]string{
		scoring.PriorityPrice:   "cheapest",
		scoring.PriorityTime:    "fastest",
		scoring.PriorityComfort: "comfortable",
		scoring.PriorityEco:     "eco",
	}
	catalog := testCatalog()
	d := newTestDispatcher(t, nil, nil)

	for p, kw := range keywords {
		t.Run(string(p), func(t *testing.T) {
			top := scoring.Rank(catalog, p)[0]
			st := &session.State{}

			d.Handle(context.Background(), st, fmt.Sprintf("%s from %s to %s", kw, top.Origin, top.Destination), catalog)

			require.NotNil(t, st.LastBest)
			assert.Equal(t, top.Option, *st.LastBest)
		})
	}
}

func TestHandle_RouteWithTransposedCity(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	st := &session.State{}

	reply := d.Handle(context.Background(), st, "train from dehli to agra", delhiAgra())

	assert.Contains(t, reply, "Route: Delhi → Agra")
	require.NotNil(t, st.LastBest)
	assert.Equal(t, "train_12002", st.LastBest.ID)
}
