package service

import (
	"context"
	"errors"
	"testing"

	"chimu/internal/common"
	"chimu/internal/domain/model"
)

func TestJoinTeamByInviteToken(t *testing.T) {
	teamRepo := newFakeTeamRepo(&model.Team{
		ID: "team-1", Name: "Order Of Sleepless", LeaderID: "leader-1", InviteToken: "tok-1",
	})
	svc := NewTeamService(teamRepo, nil)

	team, err := svc.JoinTeam(context.Background(), "tok-1", "member-2")
	if err != nil {
		t.Fatalf("JoinTeam failed: %v", err)
	}
	if team.ID != "team-1" {
		t.Fatalf("joined team %q", team.ID)
	}
	ok, _ := teamRepo.IsMember(context.Background(), "team-1", "member-2")
	if !ok {
		t.Fatal("member not recorded")
	}

	if _, err := svc.JoinTeam(context.Background(), "tok-wrong", "member-3"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetTeamHidesInviteTokenFromOutsiders(t *testing.T) {
	teamRepo := newFakeTeamRepo(&model.Team{
		ID: "team-1", Name: "Order Of Sleepless", LeaderID: "leader-1", InviteToken: "tok-1",
	})
	svc := NewTeamService(teamRepo, nil)

	asMember, err := svc.GetTeam(context.Background(), "team-1", "leader-1")
	if err != nil {
		t.Fatalf("GetTeam failed: %v", err)
	}
	if asMember.InviteToken != "tok-1" {
		t.Fatalf("member sees token %q, want tok-1", asMember.InviteToken)
	}

	asOutsider, err := svc.GetTeam(context.Background(), "team-1", "stranger-1")
	if err != nil {
		t.Fatalf("GetTeam failed: %v", err)
	}
	if asOutsider.InviteToken != "" {
		t.Fatal("outsider sees the invite token")
	}
	if len(asOutsider.Members) != 1 {
		t.Fatalf("members = %d, want 1", len(asOutsider.Members))
	}
}
