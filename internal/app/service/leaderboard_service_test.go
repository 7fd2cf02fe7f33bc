package service

import (
	"context"
	"testing"
	"time"

	"chimu/internal/domain/model"
	"chimu/internal/platform/logger"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func submittedProject(id string, offset time.Duration) *model.Project {
	teamID := "team-" + id
	at := testBase.Add(offset)
	return &model.Project{
		ID: id, TeamID: &teamID, JamID: "jam-1", Name: "project " + id,
		Status: model.ProjectSubmitted, SubmittedAt: &at, Version: 2,
	}
}

func leaderboardFixture(
	criteria []*model.RatingCriteria,
	judges []string,
	projects []*model.Project,
) (*LeaderboardService, *fakeRatingRepo) {
	jamRepo := newFakeJamRepo(testJam("jam-1", model.JamJudging))
	criteriaRepo := newFakeCriteriaRepo(criteria...)
	judgeRepo := newFakeJudgeRepo()
	judgeRepo.assign("jam-1", judges...)
	projectRepo := newFakeProjectRepo(projects...)
	ratingRepo := newFakeRatingRepo()

	svc := NewLeaderboardService(jamRepo, projectRepo, ratingRepo, criteriaRepo, judgeRepo, nil, logger.NewNop())
	return svc, ratingRepo
}

func rate(t *testing.T, repo *fakeRatingRepo, projectID, judgeID, criteriaID, score string) {
	t.Helper()
	err := repo.UpsertRating(context.Background(), &model.Rating{
		ID: projectID + "/" + judgeID + "/" + criteriaID, ProjectID: projectID,
		JudgeID: judgeID, CriteriaID: criteriaID, Score: dec(score),
	})
	if err != nil {
		t.Fatalf("seeding rating failed: %v", err)
	}
}

func TestLeaderboardWeightedDecimalScores(t *testing.T) {
	svc, ratings := leaderboardFixture(
		[]*model.RatingCriteria{
			{ID: "crit-fun", JamID: "jam-1", Name: "Fun", MaxScore: 10, Weight: dec("0.50"), OrderIndex: 0},
		},
		[]string{"judge-1", "judge-2"},
		[]*model.Project{submittedProject("proj-1", 70*time.Hour)},
	)
	rate(t, ratings, "proj-1", "judge-1", "crit-fun", "8")
	rate(t, ratings, "proj-1", "judge-2", "crit-fun", "9")

	lb, err := svc.ComputeLeaderboard(context.Background(), "jam-1")
	if err != nil {
		t.Fatalf("ComputeLeaderboard failed: %v", err)
	}
	if len(lb.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(lb.Entries))
	}

	entry := lb.Entries[0]
	// (8 + 9) / 2 = 8.5, times weight 0.50 = 4.25, exact decimal arithmetic.
	if got := entry.CriteriaScores[0].AverageScore; !got.Equal(dec("8.5")) {
		t.Fatalf("average = %s, want 8.5", got)
	}
	if got := entry.CriteriaScores[0].WeightedScore; !got.Equal(dec("4.25")) {
		t.Fatalf("weighted = %s, want 4.25", got)
	}
	if !entry.TotalScore.Equal(dec("4.25")) {
		t.Fatalf("total = %s, want 4.25", entry.TotalScore)
	}
	if !entry.AllCriteriaRated {
		t.Fatal("fully rated project not marked qualified")
	}
	if lb.QualifiedProjects != 1 {
		t.Fatalf("qualified = %d, want 1", lb.QualifiedProjects)
	}
}

func TestLeaderboardMultipleCriteriaSum(t *testing.T) {
	svc, ratings := leaderboardFixture(
		[]*model.RatingCriteria{
			{ID: "crit-fun", JamID: "jam-1", Name: "Fun", MaxScore: 10, Weight: dec("0.60"), OrderIndex: 0},
			{ID: "crit-art", JamID: "jam-1", Name: "Art", MaxScore: 5, Weight: dec("0.40"), OrderIndex: 1},
		},
		[]string{"judge-1"},
		[]*model.Project{submittedProject("proj-1", 70*time.Hour)},
	)
	rate(t, ratings, "proj-1", "judge-1", "crit-fun", "7")
	rate(t, ratings, "proj-1", "judge-1", "crit-art", "4")

	lb, err := svc.ComputeLeaderboard(context.Background(), "jam-1")
	if err != nil {
		t.Fatalf("ComputeLeaderboard failed: %v", err)
	}
	// 7*0.60 + 4*0.40 = 4.2 + 1.6 = 5.8
	if got := lb.Entries[0].TotalScore; !got.Equal(dec("5.8")) {
		t.Fatalf("total = %s, want 5.8", got)
	}
}

func TestLeaderboardPartialCoverageDisqualifiesCompleteness(t *testing.T) {
	svc, ratings := leaderboardFixture(
		[]*model.RatingCriteria{
			{ID: "crit-fun", JamID: "jam-1", Name: "Fun", MaxScore: 10, Weight: dec("1"), OrderIndex: 0},
			{ID: "crit-art", JamID: "jam-1", Name: "Art", MaxScore: 10, Weight: dec("1"), OrderIndex: 1},
		},
		[]string{"judge-1", "judge-2"},
		[]*model.Project{submittedProject("proj-1", 70*time.Hour)},
	)
	// Both judges on Fun, only one on Art: judge-level completeness fails even
	// though every criteria has at least one rating.
	rate(t, ratings, "proj-1", "judge-1", "crit-fun", "8")
	rate(t, ratings, "proj-1", "judge-2", "crit-fun", "6")
	rate(t, ratings, "proj-1", "judge-1", "crit-art", "9")

	lb, err := svc.ComputeLeaderboard(context.Background(), "jam-1")
	if err != nil {
		t.Fatalf("ComputeLeaderboard failed: %v", err)
	}
	entry := lb.Entries[0]
	if entry.AllCriteriaRated {
		t.Fatal("partially judged project marked qualified")
	}
	if lb.QualifiedProjects != 0 {
		t.Fatalf("qualified = %d, want 0", lb.QualifiedProjects)
	}
	// The partial average still contributes: 7*1 + 9*1 = 16.
	if !entry.TotalScore.Equal(dec("16")) {
		t.Fatalf("total = %s, want 16", entry.TotalScore)
	}
}

func TestLeaderboardUnratedCriteriaScoresZero(t *testing.T) {
	svc, ratings := leaderboardFixture(
		[]*model.RatingCriteria{
			{ID: "crit-fun", JamID: "jam-1", Name: "Fun", MaxScore: 10, Weight: dec("1"), OrderIndex: 0},
			{ID: "crit-art", JamID: "jam-1", Name: "Art", MaxScore: 10, Weight: dec("1"), OrderIndex: 1},
		},
		[]string{"judge-1"},
		[]*model.Project{submittedProject("proj-1", 70*time.Hour)},
	)
	rate(t, ratings, "proj-1", "judge-1", "crit-fun", "8")

	lb, err := svc.ComputeLeaderboard(context.Background(), "jam-1")
	if err != nil {
		t.Fatalf("ComputeLeaderboard failed: %v", err)
	}
	entry := lb.Entries[0]
	if !entry.CriteriaScores[1].AverageScore.Equal(decimal.Zero) {
		t.Fatalf("unrated criteria average = %s, want 0", entry.CriteriaScores[1].AverageScore)
	}
	if !entry.TotalScore.Equal(dec("8")) {
		t.Fatalf("total = %s, want 8", entry.TotalScore)
	}
}

func TestLeaderboardExcludesDisqualifiedAndDrafts(t *testing.T) {
	dq := submittedProject("proj-dq", 60*time.Hour)
	dq.Status = model.ProjectDisqualified
	draft := submittedProject("proj-draft", 0)
	draft.Status = model.ProjectDraft
	draft.SubmittedAt = nil

	svc, ratings := leaderboardFixture(
		[]*model.RatingCriteria{
			{ID: "crit-fun", JamID: "jam-1", Name: "Fun", MaxScore: 10, Weight: dec("1"), OrderIndex: 0},
		},
		[]string{"judge-1"},
		[]*model.Project{submittedProject("proj-1", 70*time.Hour), dq, draft},
	)
	// Ratings against the disqualified project are kept in storage but must
	// not surface an entry.
	rate(t, ratings, "proj-dq", "judge-1", "crit-fun", "10")
	rate(t, ratings, "proj-1", "judge-1", "crit-fun", "5")

	lb, err := svc.ComputeLeaderboard(context.Background(), "jam-1")
	if err != nil {
		t.Fatalf("ComputeLeaderboard failed: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].ProjectID != "proj-1" {
		t.Fatalf("entries = %+v, want only proj-1", lb.Entries)
	}
}

func TestLeaderboardOrderingAndTieBreaks(t *testing.T) {
	svc, ratings := leaderboardFixture(
		[]*model.RatingCriteria{
			{ID: "crit-fun", JamID: "jam-1", Name: "Fun", MaxScore: 10, Weight: dec("1"), OrderIndex: 0},
		},
		[]string{"judge-1"},
		[]*model.Project{
			submittedProject("proj-a", 72*time.Hour), // tied score, later submission
			submittedProject("proj-b", 71*time.Hour), // tied score, earlier submission
			submittedProject("proj-c", 70*time.Hour), // top score
		},
	)
	rate(t, ratings, "proj-a", "judge-1", "crit-fun", "6")
	rate(t, ratings, "proj-b", "judge-1", "crit-fun", "6")
	rate(t, ratings, "proj-c", "judge-1", "crit-fun", "9")

	lb, err := svc.ComputeLeaderboard(context.Background(), "jam-1")
	if err != nil {
		t.Fatalf("ComputeLeaderboard failed: %v", err)
	}
	var order []string
	for _, e := range lb.Entries {
		order = append(order, e.ProjectID)
	}
	want := []string{"proj-c", "proj-b", "proj-a"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	for i, e := range lb.Entries {
		if e.Rank != i+1 {
			t.Fatalf("rank[%d] = %d", i, e.Rank)
		}
	}
}

func TestLeaderboardEmptyJam(t *testing.T) {
	svc, _ := leaderboardFixture(
		[]*model.RatingCriteria{
			{ID: "crit-fun", JamID: "jam-1", Name: "Fun", MaxScore: 10, Weight: dec("1"), OrderIndex: 0},
		},
		nil, nil,
	)
	lb, err := svc.ComputeLeaderboard(context.Background(), "jam-1")
	if err != nil {
		t.Fatalf("ComputeLeaderboard failed: %v", err)
	}
	if len(lb.Entries) != 0 || lb.QualifiedProjects != 0 {
		t.Fatalf("got %d entries, %d qualified; want empty", len(lb.Entries), lb.QualifiedProjects)
	}
}
