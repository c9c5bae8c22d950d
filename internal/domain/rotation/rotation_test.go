package rotation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/domain/rotation"
)

func TestAnalyzer_Analyze(t *testing.T) {
	Convey("Given a rotation analyzer on a July day", t, func() {
		a := rotation.NewAnalyzer()
		now := time.Date(2026, 7, 15, 7, 0, 0, 0, time.UTC)

		summerTee := model.WardrobeItem{
			ID:       uuid.New(),
			Role:     model.RoleTop,
			Seasons:  []model.Season{model.SeasonSummer},
			LastWorn: now.AddDate(0, 0, -3),
		}
		winterCoat := model.WardrobeItem{
			ID:       uuid.New(),
			Role:     model.RoleOuterwear,
			Seasons:  []model.Season{model.SeasonWinter},
			LastWorn: now.AddDate(0, -5, 0),
		}

		Convey("When analyzing an in-season and an out-of-season item", func() {
			report := a.Analyze([]model.WardrobeItem{summerTee, winterCoat}, now)

			Convey("Then the season is summer", func() {
				So(report.Season, ShouldEqual, model.SeasonSummer)
			})

			Convey("And the tee stays active while the coat goes to storage", func() {
				So(report.Active, ShouldResemble, []uuid.UUID{summerTee.ID})
				So(report.Storage, ShouldResemble, []uuid.UUID{winterCoat.ID})
				So(report.Donate, ShouldBeEmpty)
			})
		})

		Convey("When an item has been unworn for years", func() {
			forgotten := model.WardrobeItem{
				ID:       uuid.New(),
				Role:     model.RoleTop,
				Seasons:  []model.Season{model.SeasonSummer},
				LastWorn: now.AddDate(-3, 0, 0),
			}
			report := a.Analyze([]model.WardrobeItem{forgotten}, now)

			Convey("Then it becomes a donation candidate but stays classified", func() {
				So(report.Active, ShouldResemble, []uuid.UUID{forgotten.ID})
				So(report.Donate, ShouldResemble, []uuid.UUID{forgotten.ID})
			})
		})

		Convey("When a long-unworn item is damaged", func() {
			ragged := model.WardrobeItem{
				ID:        uuid.New(),
				Role:      model.RoleTop,
				Seasons:   []model.Season{model.SeasonSummer},
				LastWorn:  now.AddDate(-3, 0, 0),
				Condition: model.ConditionDamaged,
			}
			report := a.Analyze([]model.WardrobeItem{ragged}, now)

			Convey("Then it is never flagged for donation", func() {
				So(report.Donate, ShouldBeEmpty)
			})
		})

		Convey("When an item has never been worn", func() {
			fresh := model.WardrobeItem{
				ID:      uuid.New(),
				Role:    model.RoleTop,
				Seasons: []model.Season{model.SeasonSummer},
			}
			report := a.Analyze([]model.WardrobeItem{fresh}, now)

			Convey("Then the zero wear time does not trigger donation", func() {
				So(report.Donate, ShouldBeEmpty)
			})
		})
	})

	Convey("Given an analyzer with a short donation window", t, func() {
		a := rotation.NewAnalyzer(rotation.WithDonateAfterSeasons(1))
		now := time.Date(2026, 7, 15, 7, 0, 0, 0, time.UTC)

		Convey("When an item missed a single season", func() {
			idle := model.WardrobeItem{
				ID:       uuid.New(),
				Role:     model.RoleTop,
				Seasons:  []model.Season{model.SeasonSummer},
				LastWorn: now.AddDate(0, -4, 0),
			}
			report := a.Analyze([]model.WardrobeItem{idle}, now)

			Convey("Then it is already a donation candidate", func() {
				So(report.Donate, ShouldResemble, []uuid.UUID{idle.ID})
			})
		})
	})
}
