package orchestrator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/garb/internal/adapters/calendar"
	"github.com/okian/garb/internal/adapters/catalog"
	"github.com/okian/garb/internal/domain/harmony"
	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/planner"
	"github.com/okian/garb/internal/domain/preference"
	"github.com/okian/garb/internal/domain/scoring"
	"github.com/okian/garb/internal/orchestrator"
	"github.com/okian/garb/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

// fakeWeather returns a fixed snapshot or a configured error, counting calls.
type fakeWeather struct {
	snap  model.WeatherSnapshot
	err   error
	calls int
}

func (f *fakeWeather) Current(_ context.Context, _ string) (model.WeatherSnapshot, error) {
	f.calls++
	if f.err != nil {
		return model.WeatherSnapshot{}, f.err
	}
	return f.snap, nil
}

// flakyWeather fails a set number of times before succeeding.
type flakyWeather struct {
	failures int
	snap     model.WeatherSnapshot
	calls    int
}

func (f *flakyWeather) Current(_ context.Context, _ string) (model.WeatherSnapshot, error) {
	f.calls++
	if f.calls <= f.failures {
		return model.WeatherSnapshot{}, errors.New("transient")
	}
	return f.snap, nil
}

type fakeCalendar struct {
	events []calendar.Event
	err    error
}

func (f *fakeCalendar) EventsFor(_ context.Context, _ time.Time) ([]calendar.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakeNarrator struct {
	text string
	err  error
}

func (f *fakeNarrator) Narrate(_ context.Context, c model.OutfitCandidate, _ model.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeNarrator) Close() error { return nil }

func seedWardrobe(cat *catalog.Memory, userID string) {
	items := []model.WardrobeItem{
		{Role: model.RoleTop, PrimaryColor: "navy", Formality: model.FormalityBusinessCasual, Seasons: []model.Season{model.SeasonSpring, model.SeasonFall}},
		{Role: model.RoleTop, PrimaryColor: "white", Formality: model.FormalityCasual, Seasons: []model.Season{model.SeasonSpring, model.SeasonSummer}},
		{Role: model.RoleBottom, PrimaryColor: "gray", Formality: model.FormalityBusinessCasual, Seasons: []model.Season{model.SeasonSpring, model.SeasonFall}},
		{Role: model.RoleShoes, PrimaryColor: "black", Formality: model.FormalityBusinessCasual, Seasons: []model.Season{model.SeasonSpring, model.SeasonFall}},
	}
	for _, it := range items {
		if _, err := cat.Put(userID, it); err != nil {
			panic(err)
		}
	}
}

func newOrchestrator(cat *catalog.Memory, w *fakeWeather, cal *fakeCalendar, now time.Time, opts ...orchestrator.Option) (*orchestrator.Orchestrator, *preference.Store) {
	prefs := preference.NewStore()
	scorer := scoring.NewScorer(harmony.NewEngine())
	pl := planner.New(scorer)
	base := []orchestrator.Option{
		orchestrator.WithClock(func() time.Time { return now }),
		orchestrator.WithStepRetries(1),
		orchestrator.WithRetryBackoff(time.Millisecond),
	}
	o := orchestrator.New(cat, w, cal, &fakeNarrator{}, pl, prefs, append(base, opts...)...)
	return o, prefs
}

func TestRecommend(t *testing.T) {
	convey.Convey("Given an orchestrator with healthy collaborators", t, func() {
		ctx := context.Background()
		now := time.Date(2025, time.April, 2, 7, 0, 0, 0, time.UTC)
		cat := catalog.NewMemory(catalog.WithClock(func() time.Time { return now }))
		seedWardrobe(cat, "ava")

		w := &fakeWeather{snap: model.WeatherSnapshot{TemperatureF: 65, Condition: "Clear"}}
		cal := &fakeCalendar{events: []calendar.Event{{Title: "Standup", Start: now, Occasion: "work"}}}
		o, _ := newOrchestrator(cat, w, cal, now)

		convey.Convey("When requesting a recommendation", func() {
			rec, err := o.Recommend(ctx, orchestrator.Request{UserID: "ava", Gender: model.GenderFemale, TopN: 3})

			convey.Convey("Then it completes with ranked outfits", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec, convey.ShouldNotBeNil)
				convey.So(rec.Outfits, convey.ShouldNotBeEmpty)
				convey.So(rec.OutfitID, convey.ShouldNotEqual, uuid.Nil)
				convey.So(rec.Degraded, convey.ShouldBeFalse)
				convey.So(rec.Confidence, convey.ShouldAlmostEqual, rec.Outfits[0].Score, 1e-9)
			})

			convey.Convey("Then the occasion comes from the calendar", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Context.Occasion, convey.ShouldEqual, model.OccasionWork)
				convey.So(rec.Context.Events, convey.ShouldResemble, []string{"Standup"})
			})

			convey.Convey("Then the terminal state is completed", func() {
				convey.So(err, convey.ShouldBeNil)
				state, _, lastErr := o.Status()
				convey.So(state, convey.ShouldEqual, orchestrator.StateCompleted)
				convey.So(lastErr, convey.ShouldBeEmpty)
			})

			convey.Convey("Then the pick is persisted", func() {
				convey.So(err, convey.ShouldBeNil)
				stored, err := cat.Outfit(ctx, rec.OutfitID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored.UserID, convey.ShouldEqual, "ava")
			})
		})

		convey.Convey("When the same request runs twice", func() {
			first, err1 := o.Recommend(ctx, orchestrator.Request{UserID: "ava", Occasion: model.OccasionWork, TopN: 2})
			convey.So(err1, convey.ShouldBeNil)

			// A fresh catalog keeps wear counts identical for the rerun.
			cat2 := catalog.NewMemory(catalog.WithClock(func() time.Time { return now }))
			seedWardrobe(cat2, "ava")
			o2, _ := newOrchestrator(cat2, &fakeWeather{snap: w.snap}, cal, now)
			second, err2 := o2.Recommend(ctx, orchestrator.Request{UserID: "ava", Occasion: model.OccasionWork, TopN: 2})
			convey.So(err2, convey.ShouldBeNil)

			convey.Convey("Then the rankings agree", func() {
				convey.So(len(first.Outfits), convey.ShouldEqual, len(second.Outfits))
				for i := range first.Outfits {
					convey.So(first.Outfits[i].Score, convey.ShouldAlmostEqual, second.Outfits[i].Score, 1e-9)
				}
			})
		})
	})

	convey.Convey("Given degraded collaborators", t, func() {
		ctx := context.Background()
		now := time.Date(2025, time.April, 2, 7, 0, 0, 0, time.UTC)

		convey.Convey("When weather is unavailable", func() {
			cat := catalog.NewMemory(catalog.WithClock(func() time.Time { return now }))
			seedWardrobe(cat, "ava")
			w := &fakeWeather{err: errors.New("service down")}
			cal := &fakeCalendar{events: []calendar.Event{{Title: "Standup", Start: now, Occasion: "work"}}}
			o, _ := newOrchestrator(cat, w, cal, now)

			rec, err := o.Recommend(ctx, orchestrator.Request{UserID: "ava", TopN: 1})

			convey.Convey("Then the run completes with lowered confidence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Degraded, convey.ShouldBeTrue)
				convey.So(rec.Context.Weather, convey.ShouldBeNil)
				convey.So(rec.Confidence, convey.ShouldBeLessThan, rec.Outfits[0].Score)
			})
		})

		convey.Convey("When weather fails transiently", func() {
			cat := catalog.NewMemory(catalog.WithClock(func() time.Time { return now }))
			seedWardrobe(cat, "ava")
			w := &flakyWeather{failures: 1, snap: model.WeatherSnapshot{TemperatureF: 65}}
			cal := &fakeCalendar{}
			o := orchestrator.New(cat, w, cal, &fakeNarrator{},
				planner.New(scoring.NewScorer(harmony.NewEngine())), preference.NewStore(),
				orchestrator.WithClock(func() time.Time { return now }),
				orchestrator.WithStepRetries(2),
				orchestrator.WithRetryBackoff(time.Millisecond))

			rec, err := o.Recommend(ctx, orchestrator.Request{UserID: "ava", Occasion: model.OccasionCasual, TopN: 1})

			convey.Convey("Then the retry recovers the signal", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.calls, convey.ShouldEqual, 2)
				convey.So(rec.Degraded, convey.ShouldBeFalse)
				convey.So(rec.Context.Weather, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When both context sources fail and no occasion is given", func() {
			cat := catalog.NewMemory(catalog.WithClock(func() time.Time { return now }))
			seedWardrobe(cat, "ava")
			w := &fakeWeather{err: errors.New("down")}
			cal := &fakeCalendar{err: errors.New("also down")}
			o, _ := newOrchestrator(cat, w, cal, now)

			rec, err := o.Recommend(ctx, orchestrator.Request{UserID: "ava", TopN: 1})

			convey.Convey("Then the run still completes on defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Degraded, convey.ShouldBeTrue)
				convey.So(rec.Context.Weather, convey.ShouldBeNil)
				convey.So(rec.Context.Occasion, convey.ShouldEqual, model.OccasionCasual)
				convey.So(rec.Confidence, convey.ShouldAlmostEqual, maxFloat(rec.Outfits[0].Score-0.3, 0), 1e-9)
				state, _, lastErr := o.Status()
				convey.So(state, convey.ShouldEqual, orchestrator.StateCompleted)
				convey.So(lastErr, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When both context sources fail but the occasion is explicit", func() {
			cat := catalog.NewMemory(catalog.WithClock(func() time.Time { return now }))
			seedWardrobe(cat, "ava")
			w := &fakeWeather{err: errors.New("down")}
			cal := &fakeCalendar{err: errors.New("also down")}
			o, _ := newOrchestrator(cat, w, cal, now)

			rec, err := o.Recommend(ctx, orchestrator.Request{UserID: "ava", Occasion: model.OccasionCasual, TopN: 1})

			convey.Convey("Then the run still completes, doubly degraded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Degraded, convey.ShouldBeTrue)
				convey.So(rec.Confidence, convey.ShouldAlmostEqual, maxFloat(rec.Outfits[0].Score-0.3, 0), 1e-9)
			})
		})
	})

	convey.Convey("Given an empty wardrobe", t, func() {
		ctx := context.Background()
		now := time.Date(2025, time.April, 2, 7, 0, 0, 0, time.UTC)
		cat := catalog.NewMemory(catalog.WithClock(func() time.Time { return now }))
		w := &fakeWeather{snap: model.WeatherSnapshot{TemperatureF: 65}}
		o, _ := newOrchestrator(cat, w, &fakeCalendar{}, now)

		convey.Convey("When requesting a recommendation", func() {
			_, err := o.Recommend(ctx, orchestrator.Request{UserID: "ghost", Occasion: model.OccasionCasual})

			convey.Convey("Then it fails with the empty wardrobe kind", func() {
				convey.So(err, convey.ShouldWrap, orchestrator.ErrEmptyWardrobe)
				state, _, _ := o.Status()
				convey.So(state, convey.ShouldEqual, orchestrator.StateFailed)
			})
		})
	})
}

func TestApplyFeedback(t *testing.T) {
	convey.Convey("Given a recorded outfit", t, func() {
		ctx := context.Background()
		now := time.Date(2025, time.April, 2, 7, 0, 0, 0, time.UTC)
		cat := catalog.NewMemory(catalog.WithClock(func() time.Time { return now }))
		seedWardrobe(cat, "ava")
		w := &fakeWeather{snap: model.WeatherSnapshot{TemperatureF: 65}}
		o, prefs := newOrchestrator(cat, w, &fakeCalendar{}, now)

		rec, err := o.Recommend(ctx, orchestrator.Request{UserID: "ava", Occasion: model.OccasionWork, TopN: 1})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When rejection feedback arrives", func() {
			ev := model.FeedbackEvent{
				ID:         uuid.New(),
				OutfitID:   rec.OutfitID,
				UserID:     "ava",
				Outcome:    model.OutcomeRejected,
				ReceivedAt: now,
			}
			convey.So(o.ApplyFeedback(ctx, ev), convey.ShouldBeNil)

			convey.Convey("Then the outfit's colors lose affinity", func() {
				profile := prefs.Get(ctx, "ava")
				for _, it := range rec.Outfits[0].AllItems() {
					convey.So(profile.ColorAffinity(it.PrimaryColor), convey.ShouldBeLessThan, 0)
				}
			})

			convey.Convey("And the feedback shows up in stats", func() {
				st, err := cat.Stats(ctx, "ava")
				convey.So(err, convey.ShouldBeNil)
				convey.So(st.Feedbacks, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When feedback names an unknown outfit", func() {
			ev := model.FeedbackEvent{ID: uuid.New(), OutfitID: uuid.New(), UserID: "ava", Outcome: model.OutcomeAccepted}

			convey.Convey("Then it is rejected as invalid", func() {
				convey.So(o.ApplyFeedback(ctx, ev), convey.ShouldWrap, orchestrator.ErrInvalidFeedback)
			})
		})

		convey.Convey("When feedback comes from the wrong user", func() {
			ev := model.FeedbackEvent{ID: uuid.New(), OutfitID: rec.OutfitID, UserID: "ben", Outcome: model.OutcomeAccepted}

			convey.Convey("Then it is rejected as invalid", func() {
				convey.So(o.ApplyFeedback(ctx, ev), convey.ShouldWrap, orchestrator.ErrInvalidFeedback)
			})
		})

		convey.Convey("When feedback carries an unknown outcome", func() {
			ev := model.FeedbackEvent{ID: uuid.New(), OutfitID: rec.OutfitID, UserID: "ava", Outcome: "shrug"}

			convey.Convey("Then it is rejected as invalid", func() {
				convey.So(o.ApplyFeedback(ctx, ev), convey.ShouldWrap, orchestrator.ErrInvalidFeedback)
			})
		})
	})
}

func TestRunRotation(t *testing.T) {
	convey.Convey("Given a wardrobe with stale items", t, func() {
		ctx := context.Background()
		now := time.Date(2025, time.July, 10, 7, 0, 0, 0, time.UTC)
		cat := catalog.NewMemory(catalog.WithClock(func() time.Time { return now }))

		_, err := cat.Put("ava", model.WardrobeItem{
			Role: model.RoleTop, PrimaryColor: "white",
			Seasons:  []model.Season{model.SeasonSummer},
			LastWorn: now.AddDate(0, 0, -7),
		})
		convey.So(err, convey.ShouldBeNil)
		_, err = cat.Put("ava", model.WardrobeItem{
			Role: model.RoleOuterwear, PrimaryColor: "black",
			Seasons:  []model.Season{model.SeasonWinter},
			LastWorn: now.AddDate(-3, 0, 0),
		})
		convey.So(err, convey.ShouldBeNil)

		o, _ := newOrchestrator(cat, &fakeWeather{}, &fakeCalendar{}, now)

		convey.Convey("When running the seasonal rotation", func() {
			report, err := o.RunRotation(ctx, "ava")

			convey.Convey("Then items split into active, storage, and donate", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(report.Season, convey.ShouldEqual, model.SeasonSummer)
				convey.So(report.Active, convey.ShouldHaveLength, 1)
				convey.So(report.Storage, convey.ShouldHaveLength, 1)
				convey.So(report.Donate, convey.ShouldHaveLength, 1)
			})
		})
	})
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
