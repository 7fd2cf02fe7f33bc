package service

import (
	"context"
	"errors"
	"testing"

	"chimu/internal/common"
	"chimu/internal/domain/model"
	"chimu/internal/platform/logger"

	"github.com/shopspring/decimal"
)

type ratingFixture struct {
	svc          *RatingService
	jamRepo      *fakeJamRepo
	ratingRepo   *fakeRatingRepo
	criteriaRepo *fakeCriteriaRepo
	judgeRepo    *fakeJudgeRepo
}

func newRatingFixture(jamStatus model.JamStatus) *ratingFixture {
	jamRepo := newFakeJamRepo(testJam("jam-1", jamStatus))
	teamID := "team-1"
	projectRepo := newFakeProjectRepo(&model.Project{
		ID: "proj-1", TeamID: &teamID, JamID: "jam-1", Name: "Midnight Garden",
		Status: model.ProjectSubmitted, Version: 2,
	})
	criteriaRepo := newFakeCriteriaRepo(&model.RatingCriteria{
		ID: "crit-fun", JamID: "jam-1", Name: "Fun", MaxScore: 10,
		Weight: decimal.RequireFromString("0.50"),
	})
	judgeRepo := newFakeJudgeRepo()
	judgeRepo.assign("jam-1", "judge-1")
	ratingRepo := newFakeRatingRepo()

	svc := NewRatingService(ratingRepo, criteriaRepo, projectRepo, jamRepo, judgeRepo, nil, logger.NewNop())
	return &ratingFixture{svc: svc, jamRepo: jamRepo, ratingRepo: ratingRepo, criteriaRepo: criteriaRepo, judgeRepo: judgeRepo}
}

func TestRateRecordsScore(t *testing.T) {
	f := newRatingFixture(model.JamJudging)

	rating, err := f.svc.Rate(context.Background(), "judge-1", RateRequest{
		ProjectID: "proj-1", CriteriaID: "crit-fun", Score: decimal.NewFromInt(8),
	})
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if !rating.Score.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("score = %s, want 8", rating.Score)
	}
}

func TestRateTwiceUpdatesInPlace(t *testing.T) {
	f := newRatingFixture(model.JamJudging)
	ctx := context.Background()

	first, err := f.svc.Rate(ctx, "judge-1", RateRequest{
		ProjectID: "proj-1", CriteriaID: "crit-fun", Score: decimal.NewFromInt(6),
	})
	if err != nil {
		t.Fatalf("first Rate failed: %v", err)
	}
	second, err := f.svc.Rate(ctx, "judge-1", RateRequest{
		ProjectID: "proj-1", CriteriaID: "crit-fun", Score: decimal.NewFromInt(9),
	})
	if err != nil {
		t.Fatalf("second Rate failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second rating got a new row: %s vs %s", second.ID, first.ID)
	}
	if len(f.ratingRepo.ratings) != 1 {
		t.Fatalf("stored ratings = %d, want 1", len(f.ratingRepo.ratings))
	}
	stored, err := f.ratingRepo.FindRatingByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !stored.Score.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("stored score = %s, want 9", stored.Score)
	}
}

func TestRateRejectsScoreAboveMax(t *testing.T) {
	f := newRatingFixture(model.JamJudging)

	_, err := f.svc.Rate(context.Background(), "judge-1", RateRequest{
		ProjectID: "proj-1", CriteriaID: "crit-fun", Score: decimal.NewFromInt(11),
	})
	if !errors.Is(err, common.ErrScoreOutOfRange) {
		t.Fatalf("err = %v, want ErrScoreOutOfRange", err)
	}
	if len(f.ratingRepo.ratings) != 0 {
		t.Fatal("out-of-range score was stored")
	}
}

func TestRateRejectsNegativeScore(t *testing.T) {
	f := newRatingFixture(model.JamJudging)

	_, err := f.svc.Rate(context.Background(), "judge-1", RateRequest{
		ProjectID: "proj-1", CriteriaID: "crit-fun", Score: decimal.NewFromInt(-1),
	})
	if !errors.Is(err, common.ErrScoreOutOfRange) {
		t.Fatalf("err = %v, want ErrScoreOutOfRange", err)
	}
}

func TestRateAcceptsBoundaryScores(t *testing.T) {
	f := newRatingFixture(model.JamJudging)
	ctx := context.Background()

	for _, score := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(10), decimal.RequireFromString("7.5")} {
		if _, err := f.svc.Rate(ctx, "judge-1", RateRequest{
			ProjectID: "proj-1", CriteriaID: "crit-fun", Score: score,
		}); err != nil {
			t.Errorf("score %s rejected: %v", score, err)
		}
	}
}

func TestRateRequiresAssignedJudge(t *testing.T) {
	f := newRatingFixture(model.JamJudging)

	_, err := f.svc.Rate(context.Background(), "judge-2", RateRequest{
		ProjectID: "proj-1", CriteriaID: "crit-fun", Score: decimal.NewFromInt(5),
	})
	if !errors.Is(err, common.ErrNotAssignedJudge) {
		t.Fatalf("err = %v, want ErrNotAssignedJudge", err)
	}
}

func TestRateRequiresJudgingWindow(t *testing.T) {
	for _, status := range []model.JamStatus{model.JamInProgress, model.JamCompleted, model.JamCancelled} {
		f := newRatingFixture(status)
		_, err := f.svc.Rate(context.Background(), "judge-1", RateRequest{
			ProjectID: "proj-1", CriteriaID: "crit-fun", Score: decimal.NewFromInt(5),
		})
		if !errors.Is(err, common.ErrInvalidJamState) {
			t.Errorf("jam %s: err = %v, want ErrInvalidJamState", status, err)
		}
	}
}

func TestRateRejectsForeignCriteria(t *testing.T) {
	f := newRatingFixture(model.JamJudging)
	f.criteriaRepo.criteria["crit-other"] = &model.RatingCriteria{
		ID: "crit-other", JamID: "jam-2", Name: "Polish", MaxScore: 10,
		Weight: decimal.NewFromInt(1),
	}

	_, err := f.svc.Rate(context.Background(), "judge-1", RateRequest{
		ProjectID: "proj-1", CriteriaID: "crit-other", Score: decimal.NewFromInt(5),
	})
	if !errors.Is(err, common.ErrCriteriaJamMismatch) {
		t.Fatalf("err = %v, want ErrCriteriaJamMismatch", err)
	}
}

func TestUpdateRatingOwnRatingOnly(t *testing.T) {
	f := newRatingFixture(model.JamJudging)
	ctx := context.Background()

	rating, err := f.svc.Rate(ctx, "judge-1", RateRequest{
		ProjectID: "proj-1", CriteriaID: "crit-fun", Score: decimal.NewFromInt(6),
	})
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}

	f.judgeRepo.assign("jam-1", "judge-2")
	_, err = f.svc.UpdateRating(ctx, rating.ID, "judge-2", UpdateRatingRequest{Score: decimal.NewFromInt(1)})
	if !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	updated, err := f.svc.UpdateRating(ctx, rating.ID, "judge-1", UpdateRatingRequest{Score: decimal.NewFromInt(7)})
	if err != nil {
		t.Fatalf("UpdateRating failed: %v", err)
	}
	if !updated.Score.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("score = %s, want 7", updated.Score)
	}
}

func TestUpdateRatingFrozenAfterCompletion(t *testing.T) {
	f := newRatingFixture(model.JamJudging)
	ctx := context.Background()

	rating, err := f.svc.Rate(ctx, "judge-1", RateRequest{
		ProjectID: "proj-1", CriteriaID: "crit-fun", Score: decimal.NewFromInt(6),
	})
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}

	f.jamRepo.jams["jam-1"].Status = model.JamCompleted
	_, err = f.svc.UpdateRating(ctx, rating.ID, "judge-1", UpdateRatingRequest{Score: decimal.NewFromInt(9)})
	if !errors.Is(err, common.ErrInvalidJamState) {
		t.Fatalf("err = %v, want ErrInvalidJamState", err)
	}
}
