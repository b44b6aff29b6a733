package services

import (
	"testing"

	"tournament-arena-system/models"
)

func TestStatusRankOrdersLifecycle(t *testing.T) {
	if !(statusRank(models.TournamentUpcoming) < statusRank(models.TournamentOngoing) &&
		statusRank(models.TournamentOngoing) < statusRank(models.TournamentCompleted)) {
		t.Error("lifecycle must order upcoming < ongoing < completed")
	}
	if statusRank(models.TournamentStatus("cancelled")) != -1 {
		t.Error("unknown statuses must rank as invalid")
	}
}
