package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/linebot-relay/internal/model/event"
	"github.com/zhouzirui/linebot-relay/internal/model/reply"
	"github.com/zhouzirui/linebot-relay/internal/service/ai"
	historyservice "github.com/zhouzirui/linebot-relay/internal/service/history"
	"github.com/zhouzirui/linebot-relay/internal/service/weather"
)

type fakeGenerator struct {
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return "gen:" + prompt, nil
}

type fakeWeather struct {
	err    error
	cities []string
}

func (f *fakeWeather) Fetch(_ context.Context, city string) (weather.Forecast, error) {
	f.cities = append(f.cities, city)
	if f.err != nil {
		return weather.Forecast{}, f.err
	}
	return weather.Forecast{City: city, Condition: "晴", MinTemp: "20", MaxTemp: "28"}, nil
}

type fakeGeocoder struct {
	city string
	err  error
}

func (f *fakeGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return f.city, f.err
}

type fixture struct {
	svc     *Service
	gen     *fakeGenerator
	weather *fakeWeather
	geo     *fakeGeocoder
	history *historyservice.Service
}

func newFixture() *fixture {
	f := &fixture{
		gen:     &fakeGenerator{},
		weather: &fakeWeather{},
		geo:     &fakeGeocoder{city: "臺中市"},
		history: historyservice.NewService(),
	}
	f.svc = NewService(f.gen, f.weather, f.geo, f.history, "臺北市")
	return f
}

func TestRouteMediaRequests(t *testing.T) {
	cases := []struct {
		text   string
		prompt string
		want   reply.Message
	}{
		{"sticker", promptSticker, reply.NewSticker(cannedSticker)},
		{"圖片", promptImage, reply.NewImage(cannedImage)},
		{"VIDEO", promptVideo, reply.NewVideo(cannedVideo)},
		{"位置", promptLocation, reply.NewLocation(cannedLocation)},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			f := newFixture()
			msgs := f.svc.Route(context.Background(), event.NewText("U1", "tok", tc.text))

			require.Len(t, msgs, 2)
			assert.Equal(t, reply.NewText("gen:"+tc.prompt), msgs[0])
			assert.Equal(t, tc.want, msgs[1])
		})
	}
}

func TestRouteWeatherRequest(t *testing.T) {
	f := newFixture()
	msgs := f.svc.Route(context.Background(), event.NewText("U1", "tok", "天氣台中"))

	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"台中"}, f.weather.cities)
	summary := weather.Forecast{City: "台中", Condition: "晴", MinTemp: "20", MaxTemp: "28"}.Summary()
	assert.Equal(t, reply.NewText("gen:"+weather.PhrasePrompt(summary)), msgs[0])
}

func TestRouteWeatherDefaultsCity(t *testing.T) {
	f := newFixture()
	f.svc.Route(context.Background(), event.NewText("U1", "tok", "天氣"))
	assert.Equal(t, []string{"臺北市"}, f.weather.cities)
}

func TestRouteWeatherFetchFailure(t *testing.T) {
	f := newFixture()
	f.weather.err = errors.New("timeout")

	msgs := f.svc.Route(context.Background(), event.NewText("U1", "tok", "天氣台中"))
	require.Len(t, msgs, 1)
	assert.Equal(t, reply.NewText(weather.FallbackReport), msgs[0])
	assert.Empty(t, f.gen.prompts)
}

func TestRouteLocationEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	msgs := f.svc.Route(ctx, event.NewLocation("U9", "tok", 24.1477, 120.6736))

	require.Len(t, msgs, 1)
	assert.Equal(t, reply.TypeText, msgs[0].Type)
	assert.Equal(t, []string{"臺中市"}, f.weather.cities)

	entries := f.history.ListAll(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "U9", entries[0].UserID)
	assert.Equal(t, "位置：(24.1477, 120.6736)", entries[0].User)
	assert.Equal(t, msgs[0].Text.Body, entries[0].Bot)
}

func TestRouteLocationGeocodeFailureUsesDefaultCity(t *testing.T) {
	f := newFixture()
	f.geo.err = errors.New("no route")

	f.svc.Route(context.Background(), event.NewLocation("U1", "tok", 0, 0))
	assert.Equal(t, []string{"臺北市"}, f.weather.cities)
}

func TestRouteMediaEcho(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	msgs := f.svc.Route(ctx, event.NewMedia("U1", "tok", event.KindSticker))

	require.Len(t, msgs, 1)
	assert.Equal(t, reply.NewText("gen:"+mediaEchoPrompt(event.KindSticker)), msgs[0])
	assert.Equal(t, "貼圖訊息", f.history.ListAll(ctx)[0].User)
}

func TestRouteFreeform(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	msgs := f.svc.Route(ctx, event.NewText("U1", "tok", " 今天好累 "))

	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"使用者說：「今天好累」，請自然回覆。"}, f.gen.prompts)

	entries := f.history.ListAll(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "今天好累", entries[0].User)
	assert.Equal(t, msgs[0].Text.Body, entries[0].Bot)
}

func TestRouteGenerationFailureFallsBack(t *testing.T) {
	inputs := []event.Inbound{
		event.NewText("U1", "tok", "貼圖"),
		event.NewText("U1", "tok", "圖片"),
		event.NewText("U1", "tok", "影片"),
		event.NewText("U1", "tok", "天氣"),
		event.NewText("U1", "tok", "location"),
		event.NewText("U1", "tok", "hello"),
		event.NewLocation("U1", "tok", 25, 121),
		event.NewMedia("U1", "tok", event.KindImage),
		event.NewMedia("U1", "tok", event.KindOther),
	}

	for _, in := range inputs {
		f := newFixture()
		f.gen.err = errors.New("backend down")

		msgs := f.svc.Route(context.Background(), in)
		require.NotEmpty(t, msgs)
		assert.Equal(t, reply.NewText(ai.FallbackReply), msgs[0])

		entries := f.history.ListAll(context.Background())
		require.Len(t, entries, 1)
		assert.Equal(t, ai.FallbackReply, entries[0].Bot)
	}
}

func TestRouteWithoutGenerator(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, "臺北市")
	msgs := svc.Route(context.Background(), event.NewText("U1", "tok", "hi"))
	assert.Equal(t, []reply.Message{reply.NewText(ai.FallbackReply)}, msgs)

	msgs = svc.Route(context.Background(), event.NewText("U1", "tok", "天氣"))
	assert.Equal(t, []reply.Message{reply.NewText(weather.FallbackReport)}, msgs)
}

func TestRouteRecordsHistoryOncePerEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.svc.Route(ctx, event.NewText("U1", "tok", "貼圖"))
	f.svc.Route(ctx, event.NewText("U2", "tok", "hello"))

	entries := f.history.ListAll(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, "U1", entries[0].UserID)
	assert.Equal(t, "貼圖", entries[0].User)
	assert.Equal(t, "gen:"+promptSticker, entries[0].Bot)
	assert.Equal(t, "U2", entries[1].UserID)
}
