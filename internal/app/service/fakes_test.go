package service

import (
	"context"
	"database/sql"
	"sort"

	"chimu/internal/common"
	"chimu/internal/domain/model"

	"github.com/shopspring/decimal"
)

// In-memory repository fakes. They implement just enough semantics for the
// service tests: compare-and-swap updates, the one-active-registration rule
// and optimistic project versions behave like the postgres implementations.

type fakeJamRepo struct {
	jams map[string]*model.Jam
	// failStatusUpdate, when set for a jam, makes UpdateJamStatus fail once.
	failStatusUpdate map[string]error
	statusUpdates    int
}

func newFakeJamRepo(jams ...*model.Jam) *fakeJamRepo {
	r := &fakeJamRepo{jams: map[string]*model.Jam{}, failStatusUpdate: map[string]error{}}
	for _, j := range jams {
		r.jams[j.ID] = j
	}
	return r
}

func (r *fakeJamRepo) CreateJam(_ context.Context, _ *sql.Tx, jam *model.Jam) error {
	r.jams[jam.ID] = jam
	return nil
}

func (r *fakeJamRepo) UpdateJam(_ context.Context, jam *model.Jam, expectedStatus model.JamStatus) error {
	cur, ok := r.jams[jam.ID]
	if !ok || cur.Status != expectedStatus {
		return common.ErrConflict
	}
	r.jams[jam.ID] = jam
	return nil
}

func (r *fakeJamRepo) FindJamByID(_ context.Context, id string) (*model.Jam, error) {
	jam, ok := r.jams[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *jam
	return &cp, nil
}

func (r *fakeJamRepo) FindJamBySlug(_ context.Context, slug string) (*model.Jam, error) {
	for _, jam := range r.jams {
		if jam.Slug == slug {
			cp := *jam
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeJamRepo) ListJams(_ context.Context, limit, offset int, status model.JamStatus) ([]model.Jam, int, error) {
	var out []model.Jam
	for _, jam := range r.jams {
		if status == "" || jam.Status == status {
			out = append(out, *jam)
		}
	}
	return out, len(out), nil
}

func (r *fakeJamRepo) ListActiveJams(_ context.Context) ([]model.Jam, error) {
	var out []model.Jam
	for _, jam := range r.jams {
		if !jam.IsTerminal() {
			out = append(out, *jam)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeJamRepo) UpdateJamStatus(_ context.Context, jamID string, from, to model.JamStatus) error {
	if err, ok := r.failStatusUpdate[jamID]; ok {
		delete(r.failStatusUpdate, jamID)
		return err
	}
	jam, ok := r.jams[jamID]
	if !ok || jam.Status != from {
		return common.ErrConflict
	}
	jam.Status = to
	r.statusUpdates++
	return nil
}

type fakeTeamRepo struct {
	teams   map[string]*model.Team
	members map[string][]string // teamID -> userIDs
}

func newFakeTeamRepo(teams ...*model.Team) *fakeTeamRepo {
	r := &fakeTeamRepo{teams: map[string]*model.Team{}, members: map[string][]string{}}
	for _, t := range teams {
		r.teams[t.ID] = t
		r.members[t.ID] = []string{t.LeaderID}
	}
	return r
}

func (r *fakeTeamRepo) addMembers(teamID string, userIDs ...string) {
	r.members[teamID] = append(r.members[teamID], userIDs...)
}

func (r *fakeTeamRepo) CreateTeam(_ context.Context, _ *sql.Tx, team *model.Team) error {
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) AddMember(_ context.Context, _ *sql.Tx, member *model.TeamMember) error {
	r.members[member.TeamID] = append(r.members[member.TeamID], member.UserID)
	return nil
}

func (r *fakeTeamRepo) FindTeamByID(_ context.Context, id string) (*model.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *team
	return &cp, nil
}

func (r *fakeTeamRepo) FindTeamByInviteToken(_ context.Context, token string) (*model.Team, error) {
	for _, team := range r.teams {
		if team.InviteToken == token {
			cp := *team
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeTeamRepo) ListMembers(_ context.Context, teamID string) ([]model.TeamMember, error) {
	var out []model.TeamMember
	for _, uid := range r.members[teamID] {
		out = append(out, model.TeamMember{TeamID: teamID, UserID: uid})
	}
	return out, nil
}

func (r *fakeTeamRepo) IsMember(_ context.Context, teamID, userID string) (bool, error) {
	for _, uid := range r.members[teamID] {
		if uid == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTeamRepo) CountMembers(_ context.Context, teamID string) (int, error) {
	return len(r.members[teamID]), nil
}

type fakeRegRepo struct {
	regs map[string]*model.JamTeamRegistration
}

func newFakeRegRepo(regs ...*model.JamTeamRegistration) *fakeRegRepo {
	r := &fakeRegRepo{regs: map[string]*model.JamTeamRegistration{}}
	for _, reg := range regs {
		r.regs[reg.ID] = reg
	}
	return r
}

func (r *fakeRegRepo) CreateRegistration(_ context.Context, reg *model.JamTeamRegistration) error {
	for _, existing := range r.regs {
		if existing.JamID == reg.JamID && existing.TeamID == reg.TeamID && existing.Status.IsActive() {
			return common.ErrDuplicateRegistration
		}
	}
	r.regs[reg.ID] = reg
	return nil
}

func (r *fakeRegRepo) FindRegistrationByID(_ context.Context, id string) (*model.JamTeamRegistration, error) {
	reg, ok := r.regs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (r *fakeRegRepo) FindActiveRegistration(_ context.Context, jamID, teamID string) (*model.JamTeamRegistration, error) {
	for _, reg := range r.regs {
		if reg.JamID == jamID && reg.TeamID == teamID && reg.Status.IsActive() {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeRegRepo) ListRegistrationsByJam(_ context.Context, jamID string) ([]model.JamTeamRegistration, error) {
	var out []model.JamTeamRegistration
	for _, reg := range r.regs {
		if reg.JamID == jamID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *fakeRegRepo) UpdateRegistrationStatus(_ context.Context, regID string, from, to model.RegistrationStatus) error {
	reg, ok := r.regs[regID]
	if !ok || reg.Status != from {
		return common.ErrConflict
	}
	reg.Status = to
	return nil
}

func (r *fakeRegRepo) CountApprovedByJam(_ context.Context, jamID string) (int, error) {
	n := 0
	for _, reg := range r.regs {
		if reg.JamID == jamID && reg.Status == model.RegistrationApproved {
			n++
		}
	}
	return n, nil
}

type fakeProjectRepo struct {
	projects map[string]*model.Project
}

func newFakeProjectRepo(projects ...*model.Project) *fakeProjectRepo {
	r := &fakeProjectRepo{projects: map[string]*model.Project{}}
	for _, p := range projects {
		r.projects[p.ID] = p
	}
	return r
}

func (r *fakeProjectRepo) CreateProject(_ context.Context, p *model.Project) error {
	for _, existing := range r.projects {
		if existing.JamID == p.JamID && existing.TeamID != nil && p.TeamID != nil && *existing.TeamID == *p.TeamID {
			return common.ErrConflict
		}
	}
	r.projects[p.ID] = p
	return nil
}

func (r *fakeProjectRepo) FindProjectByID(_ context.Context, id string) (*model.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) FindProjectByTeamAndJam(_ context.Context, teamID, jamID string) (*model.Project, error) {
	for _, p := range r.projects {
		if p.JamID == jamID && p.TeamID != nil && *p.TeamID == teamID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeProjectRepo) ListProjectsByJam(_ context.Context, jamID string) ([]model.Project, error) {
	var out []model.Project
	for _, p := range r.projects {
		if p.JamID == jamID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) ListEligibleProjects(_ context.Context, jamID string) ([]model.Project, error) {
	var out []model.Project
	for _, p := range r.projects {
		if p.JamID == jamID && p.EligibleForLeaderboard() {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProjectRepo) UpdateProjectStatus(_ context.Context, projectID string, expectedVersion int, status model.ProjectStatus, submittedAt sql.NullTime) error {
	p, ok := r.projects[projectID]
	if !ok {
		return common.ErrNotFound
	}
	if p.Version != expectedVersion {
		return common.ErrConflict
	}
	p.Status = status
	p.Version++
	if submittedAt.Valid {
		t := submittedAt.Time
		p.SubmittedAt = &t
	} else {
		p.SubmittedAt = nil
	}
	return nil
}

type ratingKey struct{ projectID, judgeID, criteriaID string }

type fakeRatingRepo struct {
	ratings map[ratingKey]*model.Rating
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: map[ratingKey]*model.Rating{}}
}

func (r *fakeRatingRepo) UpsertRating(_ context.Context, rating *model.Rating) error {
	k := ratingKey{rating.ProjectID, rating.JudgeID, rating.CriteriaID}
	if existing, ok := r.ratings[k]; ok {
		existing.Score = rating.Score
		existing.Comment = rating.Comment
		rating.ID = existing.ID
		return nil
	}
	cp := *rating
	r.ratings[k] = &cp
	return nil
}

func (r *fakeRatingRepo) FindRatingByID(_ context.Context, id string) (*model.Rating, error) {
	for _, rating := range r.ratings {
		if rating.ID == id {
			cp := *rating
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeRatingRepo) UpdateRating(_ context.Context, ratingID string, score decimal.Decimal, comment *string) error {
	for _, rating := range r.ratings {
		if rating.ID == ratingID {
			rating.Score = score
			rating.Comment = comment
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *fakeRatingRepo) ListRatingsByProject(_ context.Context, projectID string) ([]model.Rating, error) {
	var out []model.Rating
	for _, rating := range r.ratings {
		if rating.ProjectID == projectID {
			out = append(out, *rating)
		}
	}
	return out, nil
}

func (r *fakeRatingRepo) ListRatingsByJam(_ context.Context, _ string) ([]model.Rating, error) {
	// Tests run against a single jam, so every stored rating belongs to it.
	var out []model.Rating
	for _, rating := range r.ratings {
		out = append(out, *rating)
	}
	return out, nil
}

type fakeCriteriaRepo struct {
	criteria map[string]*model.RatingCriteria
	rated    map[string]bool
}

func newFakeCriteriaRepo(criteria ...*model.RatingCriteria) *fakeCriteriaRepo {
	r := &fakeCriteriaRepo{criteria: map[string]*model.RatingCriteria{}, rated: map[string]bool{}}
	for _, c := range criteria {
		r.criteria[c.ID] = c
	}
	return r
}

func (r *fakeCriteriaRepo) CreateCriteria(_ context.Context, _ *sql.Tx, c *model.RatingCriteria) error {
	r.criteria[c.ID] = c
	return nil
}

func (r *fakeCriteriaRepo) UpdateCriteria(_ context.Context, c *model.RatingCriteria) error {
	if _, ok := r.criteria[c.ID]; !ok {
		return common.ErrNotFound
	}
	r.criteria[c.ID] = c
	return nil
}

func (r *fakeCriteriaRepo) DeleteCriteria(_ context.Context, id string) error {
	delete(r.criteria, id)
	return nil
}

func (r *fakeCriteriaRepo) FindCriteriaByID(_ context.Context, id string) (*model.RatingCriteria, error) {
	c, ok := r.criteria[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCriteriaRepo) ListCriteriaByJam(_ context.Context, jamID string) ([]model.RatingCriteria, error) {
	var out []model.RatingCriteria
	for _, c := range r.criteria {
		if c.JamID == jamID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r *fakeCriteriaRepo) ExistsByJamAndName(_ context.Context, jamID, name string) (bool, error) {
	for _, c := range r.criteria {
		if c.JamID == jamID && c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCriteriaRepo) HasRatings(_ context.Context, criteriaID string) (bool, error) {
	return r.rated[criteriaID], nil
}

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeJudgeRepo struct {
	assignments map[string][]string // jamID -> judgeIDs
}

func newFakeJudgeRepo() *fakeJudgeRepo {
	return &fakeJudgeRepo{assignments: map[string][]string{}}
}

func (r *fakeJudgeRepo) assign(jamID string, judgeIDs ...string) {
	r.assignments[jamID] = append(r.assignments[jamID], judgeIDs...)
}

func (r *fakeJudgeRepo) AssignJudge(_ context.Context, jj *model.JamJudge) error {
	for _, id := range r.assignments[jj.JamID] {
		if id == jj.JudgeID {
			return common.ErrConflict
		}
	}
	r.assignments[jj.JamID] = append(r.assignments[jj.JamID], jj.JudgeID)
	return nil
}

func (r *fakeJudgeRepo) RemoveJudge(_ context.Context, jamID, judgeID string) error {
	judges := r.assignments[jamID]
	for i, id := range judges {
		if id == judgeID {
			r.assignments[jamID] = append(judges[:i], judges[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *fakeJudgeRepo) IsAssignedJudge(_ context.Context, jamID, judgeID string) (bool, error) {
	for _, id := range r.assignments[jamID] {
		if id == judgeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeJudgeRepo) ListJudgesByJam(_ context.Context, jamID string) ([]model.JamJudge, error) {
	var out []model.JamJudge
	for _, id := range r.assignments[jamID] {
		out = append(out, model.JamJudge{JamID: jamID, JudgeID: id})
	}
	return out, nil
}

func (r *fakeJudgeRepo) CountJudgesByJam(_ context.Context, jamID string) (int, error) {
	return len(r.assignments[jamID]), nil
}
