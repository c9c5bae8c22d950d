package scoring_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/garb/internal/domain/harmony"
	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/preference"
	"github.com/okian/garb/internal/domain/scoring"
)

func officeCandidate() model.OutfitCandidate {
	allSeasons := []model.Season{model.SeasonSpring, model.SeasonSummer, model.SeasonFall, model.SeasonWinter}
	return model.OutfitCandidate{
		Items: map[model.GarmentRole]model.WardrobeItem{
			model.RoleTop:    {Role: model.RoleTop, PrimaryColor: "navy", Formality: model.FormalityBusinessCasual, Seasons: allSeasons},
			model.RoleBottom: {Role: model.RoleBottom, PrimaryColor: "gray", Formality: model.FormalityBusinessCasual, Seasons: allSeasons},
			model.RoleShoes:  {Role: model.RoleShoes, PrimaryColor: "white", Formality: model.FormalityBusinessCasual, Seasons: allSeasons},
		},
	}
}

func workContext(tempF float64) model.Context {
	return model.Context{
		Occasion:  model.OccasionWork,
		Weather:   &model.WeatherSnapshot{TemperatureF: tempF, Condition: "Clear"},
		Timestamp: time.Date(2026, 4, 15, 8, 0, 0, 0, time.UTC),
	}
}

func TestScorer_Score(t *testing.T) {
	Convey("Given a scorer with default weights", t, func() {
		s := scoring.NewScorer(harmony.NewEngine())
		profile := preference.NewProfile("mina")

		Convey("When scoring navy, gray, and white for work at 65 degrees", func() {
			total, b, err := s.Score(officeCandidate(), workContext(65), profile)

			Convey("Then every component should fit well", func() {
				So(err, ShouldBeNil)
				So(b.FormalityFit, ShouldEqual, 1.0)
				So(b.WeatherFit, ShouldEqual, 1.0)
				So(b.Harmony, ShouldBeGreaterThanOrEqualTo, 0.8)
				So(b.PreferenceFit, ShouldEqual, 0.5)
				So(total, ShouldBeGreaterThan, 0.7)
			})

			Convey("And scoring the same inputs again should be identical", func() {
				again, b2, err2 := s.Score(officeCandidate(), workContext(65), profile)
				So(err2, ShouldBeNil)
				So(again, ShouldEqual, total)
				So(b2, ShouldResemble, b)
			})
		})

		Convey("When an athletic item sneaks into a work outfit", func() {
			c := officeCandidate()
			it := c.Items[model.RoleTop]
			it.Formality = model.FormalityAthletic
			c.Items[model.RoleTop] = it

			dressed, _, err := s.Score(officeCandidate(), workContext(65), profile)
			So(err, ShouldBeNil)
			sloppy, b, err := s.Score(c, workContext(65), profile)

			Convey("Then the formality shortfall should drag the total down", func() {
				So(err, ShouldBeNil)
				So(b.FormalityFit, ShouldBeLessThan, 0.1)
				So(sloppy, ShouldBeLessThan, dressed)
			})
		})

		Convey("When the candidate has no items", func() {
			_, _, err := s.Score(model.OutfitCandidate{}, workContext(65), profile)

			Convey("Then it should surface a scoring fault", func() {
				So(err, ShouldWrap, scoring.ErrScoring)
			})
		})

		Convey("When a learned dislike covers the outfit's colors", func() {
			disliking := preference.NewProfile("mina")
			disliking.Colors["navy"] = -0.9
			disliking.Colors["gray"] = -0.9
			disliking.Colors["white"] = -0.9

			neutral, _, err := s.Score(officeCandidate(), workContext(65), profile)
			So(err, ShouldBeNil)
			disliked, b, err := s.Score(officeCandidate(), workContext(65), disliking)

			Convey("Then the preference component should fall below neutral", func() {
				So(err, ShouldBeNil)
				So(b.PreferenceFit, ShouldBeLessThan, 0.1)
				So(disliked, ShouldBeLessThan, neutral)
			})
		})
	})
}

func TestScorer_WeatherFit(t *testing.T) {
	Convey("Given a scorer with default temperature bands", t, func() {
		s := scoring.NewScorer(harmony.NewEngine())
		profile := preference.NewProfile("mina")

		summerOnly := []model.Season{model.SeasonSummer}
		winterOnly := []model.Season{model.SeasonWinter}

		candidate := func(core, shell []model.Season) model.OutfitCandidate {
			c := model.OutfitCandidate{
				Items: map[model.GarmentRole]model.WardrobeItem{
					model.RoleTop:    {Role: model.RoleTop, PrimaryColor: "navy", Formality: model.FormalityCasual, Seasons: core},
					model.RoleBottom: {Role: model.RoleBottom, PrimaryColor: "gray", Formality: model.FormalityCasual, Seasons: core},
					model.RoleShoes:  {Role: model.RoleShoes, PrimaryColor: "white", Formality: model.FormalityCasual, Seasons: core},
				},
			}
			if shell != nil {
				c.Items[model.RoleOuterwear] = model.WardrobeItem{Role: model.RoleOuterwear, PrimaryColor: "black", Formality: model.FormalityCasual, Seasons: shell}
			}
			return c
		}

		casual := func(tempF float64) model.Context {
			ctx := workContext(tempF)
			ctx.Occasion = model.OccasionCasual
			return ctx
		}

		Convey("When a hot day meets summer garments", func() {
			_, b, err := s.Score(candidate(summerOnly, nil), casual(85), profile)
			So(err, ShouldBeNil)
			So(b.WeatherFit, ShouldEqual, 1.0)
		})

		Convey("When a hot day meets winter garments", func() {
			_, b, err := s.Score(candidate(winterOnly, nil), casual(85), profile)
			So(err, ShouldBeNil)
			So(b.WeatherFit, ShouldEqual, 0)
		})

		Convey("When only the outerwear is out of season", func() {
			_, b, err := s.Score(candidate(summerOnly, winterOnly), casual(85), profile)
			So(err, ShouldBeNil)
			So(b.WeatherFit, ShouldEqual, 0.5)
		})

		Convey("When a freezing day meets winter garments", func() {
			_, b, err := s.Score(candidate(winterOnly, nil), casual(30), profile)
			So(err, ShouldBeNil)
			So(b.WeatherFit, ShouldEqual, 1.0)
		})

		Convey("When a mild summer day meets summer garments", func() {
			ctx := casual(65)
			ctx.Timestamp = time.Date(2026, 7, 15, 8, 0, 0, 0, time.UTC)
			_, b, err := s.Score(candidate(summerOnly, nil), ctx, profile)
			So(err, ShouldBeNil)
			So(b.WeatherFit, ShouldEqual, 1.0)
		})

		Convey("When a mild spring day meets spring garments", func() {
			springOnly := []model.Season{model.SeasonSpring}
			_, b, err := s.Score(candidate(springOnly, nil), casual(65), profile)
			So(err, ShouldBeNil)
			So(b.WeatherFit, ShouldEqual, 1.0)
		})

		Convey("When a mild spring day meets winter garments", func() {
			_, b, err := s.Score(candidate(winterOnly, nil), casual(65), profile)
			So(err, ShouldBeNil)
			So(b.WeatherFit, ShouldEqual, 0)
		})

		Convey("When no weather snapshot is available", func() {
			ctx := casual(0)
			ctx.Weather = nil
			// April timestamp: calendar says spring.
			spring := []model.Season{model.SeasonSpring}
			_, b, err := s.Score(candidate(spring, nil), ctx, profile)
			So(err, ShouldBeNil)
			So(b.WeatherFit, ShouldEqual, 1.0)
		})
	})
}

func TestScorer_CustomWeights(t *testing.T) {
	Convey("Given a scorer weighted entirely on formality", t, func() {
		s := scoring.NewScorer(harmony.NewEngine(),
			scoring.WithWeights(scoring.Weights{Formality: 1}),
		)
		profile := preference.NewProfile("mina")

		Convey("When scoring a fully formal-enough outfit", func() {
			total, _, err := s.Score(officeCandidate(), workContext(65), profile)

			Convey("Then the total should equal the formality component", func() {
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 1.0)
			})
		})
	})
}
