package service

import (
	"errors"
	"testing"
	"time"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/repository"
)

func setupSettlementFixtures(t *testing.T, name string, count int) (*serviceTestEnv, []*models.SettlementRecord) {
	t.Helper()
	env := setupServiceTestEnv(t, name)
	category := env.createCategory(t, "spa")
	vendor := env.createVendor(t, "hammam")
	env.createRate(t, category.ID, nil, "10")
	offer := env.createOffer(t, vendor, category, "200.00", nil)
	records := make([]*models.SettlementRecord, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, env.createPaidOrder(t, offer, testBookingDay, 1, constants.PaymentTypeFull))
	}
	return env, records
}

func TestSettlementWorkflowTransitions(t *testing.T) {
	env, records := setupSettlementFixtures(t, "workflow_transitions", 1)
	id := records[0].ID
	transferDate := time.Date(2026, 3, 16, 0, 0, 0, 0, time.Local)

	result, err := env.settlements.MarkAsProcessed(testContext(), []uint{id}, 7, &transferDate, "batch 11")
	if err != nil {
		t.Fatalf("mark processed failed: %v", err)
	}
	if result.AffectedCount != 1 {
		t.Fatalf("expected 1 affected, got %d", result.AffectedCount)
	}
	detail, err := env.settlements.Get(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if detail.TransferStatus != constants.SettlementStatusProcessed || detail.TransferDate == nil || !detail.TransferDate.Equal(transferDate) {
		t.Fatalf("unexpected processed record: %+v", detail.SettlementRecord)
	}
	last := detail.Logs[len(detail.Logs)-1]
	if last.Action != constants.SettlementLogActionStatusChanged || last.PreviousStatus["transfer_status"] != constants.SettlementStatusPending {
		t.Fatalf("unexpected log: %+v", last)
	}
	if last.AdminID == nil || *last.AdminID != 7 || last.Note != "batch 11" {
		t.Fatalf("log should carry admin and note: %+v", last)
	}

	if _, err := env.settlements.RevertToPending(id, 7, "  "); !errors.Is(err, ErrRevertNoteRequired) {
		t.Fatalf("expected ErrRevertNoteRequired, got %v", err)
	}
	reverted, err := env.settlements.RevertToPending(id, 7, "wrong RIB")
	if err != nil {
		t.Fatalf("revert failed: %v", err)
	}
	if reverted.TransferStatus != constants.SettlementStatusPending || reverted.TransferDate != nil {
		t.Fatalf("unexpected reverted record: %+v", reverted)
	}

	if _, err := env.settlements.MarkAsProcessed(testContext(), []uint{id}, 7, nil, ""); err != nil {
		t.Fatalf("mark processed again failed: %v", err)
	}
	completed, err := env.settlements.MarkAsComplete(testContext(), []uint{id}, 7, "")
	if err != nil || completed.AffectedCount != 1 {
		t.Fatalf("mark complete failed: %v %+v", err, completed)
	}

	_, err = env.settlements.RevertToPending(id, 7, "try")
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) || transitionErr.From != constants.SettlementStatusComplete {
		t.Fatalf("complete -> pending must be rejected, got %v", err)
	}

	logs, err := env.settlements.Logs(id)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	wantActions := []string{
		constants.SettlementLogActionCreated,
		constants.SettlementLogActionStatusChanged,
		constants.SettlementLogActionReverted,
		constants.SettlementLogActionStatusChanged,
		constants.SettlementLogActionStatusChanged,
	}
	if len(logs) != len(wantActions) {
		t.Fatalf("expected %d logs, got %d", len(wantActions), len(logs))
	}
	for i, action := range wantActions {
		if logs[i].Action != action {
			t.Fatalf("log %d action = %s, want %s", i, logs[i].Action, action)
		}
	}
}

func TestMarkAsProcessedPartialSuccess(t *testing.T) {
	env, records := setupSettlementFixtures(t, "bulk_partial", 3)
	done := records[2].ID
	if _, err := env.settlements.MarkAsProcessed(testContext(), []uint{done}, 1, nil, ""); err != nil {
		t.Fatalf("prepare processed failed: %v", err)
	}
	if _, err := env.settlements.MarkAsComplete(testContext(), []uint{done}, 1, ""); err != nil {
		t.Fatalf("prepare complete failed: %v", err)
	}

	ids := []uint{records[0].ID, records[1].ID, done, 9999}
	result, err := env.settlements.MarkAsProcessed(testContext(), ids, 1, nil, "")
	if err != nil {
		t.Fatalf("bulk mark processed failed: %v", err)
	}
	if result.AffectedCount != 2 {
		t.Fatalf("expected affected_count 2, got %d", result.AffectedCount)
	}
	if len(result.SkippedIDs) != 2 || result.SkippedIDs[0] != done || result.SkippedIDs[1] != 9999 {
		t.Fatalf("unexpected skipped ids: %v", result.SkippedIDs)
	}
	record, err := env.settlements.Get(done)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.TransferStatus != constants.SettlementStatusComplete {
		t.Fatalf("complete record must be untouched, got %s", record.TransferStatus)
	}

	if _, err := env.settlements.MarkAsProcessed(testContext(), nil, 1, nil, ""); !errors.Is(err, ErrSettlementIDsEmpty) {
		t.Fatalf("expected ErrSettlementIDsEmpty, got %v", err)
	}
}

func TestUpdateStatusGoesThroughStateMachine(t *testing.T) {
	env, records := setupSettlementFixtures(t, "update_status", 1)
	id := records[0].ID

	complete := constants.SettlementStatusComplete
	if _, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{TransferStatus: &complete}); !errors.Is(err, ErrSettlementTransitionInvalid) {
		t.Fatalf("pending -> complete must be rejected, got %v", err)
	}

	processed := constants.SettlementStatusProcessed
	reason := "manual transfer"
	updated, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{TransferStatus: &processed, Reason: &reason})
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.TransferStatus != processed || updated.TransferDate == nil || updated.Reason != reason {
		t.Fatalf("unexpected record: %+v", updated)
	}

	pending := constants.SettlementStatusPending
	if _, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{TransferStatus: &pending}); !errors.Is(err, ErrRevertNoteRequired) {
		t.Fatalf("revert via update without note must fail, got %v", err)
	}
	if _, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{TransferStatus: &pending, Note: "bank rejected"}); err != nil {
		t.Fatalf("revert via update failed: %v", err)
	}

	unknown := "paid"
	if _, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{TransferStatus: &unknown}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{}); !errors.Is(err, ErrSettlementNoFields) {
		t.Fatalf("expected ErrSettlementNoFields, got %v", err)
	}
	if _, err := env.settlements.UpdateStatus(id+100, 1, SettlementUpdateInput{Reason: &reason}); !errors.Is(err, ErrSettlementNotFound) {
		t.Fatalf("expected ErrSettlementNotFound, got %v", err)
	}
}

func TestUpdateDatesRecomputesWeekBucket(t *testing.T) {
	env, records := setupSettlementFixtures(t, "update_dates", 1)
	id := records[0].ID

	paymentDate := time.Date(2026, 4, 2, 9, 0, 0, 0, time.Local)
	updated, err := env.settlements.UpdateDates(id, 1, SettlementDatesInput{PaymentDate: &paymentDate, Note: "gateway delay"})
	if err != nil {
		t.Fatalf("update dates failed: %v", err)
	}
	if updated.WeekStart != "2026-03-30" {
		t.Fatalf("expected week 2026-03-30, got %s", updated.WeekStart)
	}
	logs, err := env.settlements.Logs(id)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	last := logs[len(logs)-1]
	if last.Action != constants.SettlementLogActionDateUpdated || last.NewStatus["week_start"] != "2026-03-30" {
		t.Fatalf("unexpected log: %+v", last)
	}

	rows, total, err := env.settlements.List(repository.SettlementListFilter{WeekFrom: "2026-03-30", WeekTo: "2026-03-30"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("expected record in new week bucket, got total=%d", total)
	}
	if _, err := env.settlements.UpdateDates(id, 1, SettlementDatesInput{}); !errors.Is(err, ErrSettlementNoFields) {
		t.Fatalf("expected ErrSettlementNoFields, got %v", err)
	}
}

func TestUpdateStatusTransferDateFollowsStatus(t *testing.T) {
	env, records := setupSettlementFixtures(t, "update_transfer_date", 1)
	id := records[0].ID

	transferDate := time.Date(2026, 3, 23, 9, 0, 0, 0, time.Local)
	if _, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{TransferDate: &transferDate}); !errors.Is(err, ErrTransferDateStatusInvalid) {
		t.Fatalf("pending record must not take a transfer date, got %v", err)
	}
	if _, err := env.settlements.UpdateDates(id, 1, SettlementDatesInput{TransferDate: &transferDate}); !errors.Is(err, ErrTransferDateStatusInvalid) {
		t.Fatalf("date update on pending record must reject transfer date, got %v", err)
	}

	pending := constants.SettlementStatusPending
	logsBefore, err := env.settlements.Logs(id)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if _, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{TransferStatus: &pending}); !errors.Is(err, ErrSettlementNoFields) {
		t.Fatalf("unchanged status without other fields must be rejected, got %v", err)
	}
	if _, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{ClearTransferDate: true}); !errors.Is(err, ErrSettlementNoFields) {
		t.Fatalf("clearing an absent transfer date changes nothing, got %v", err)
	}
	logsAfter, err := env.settlements.Logs(id)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if len(logsAfter) != len(logsBefore) {
		t.Fatalf("no-op updates must not write logs: before=%d after=%d", len(logsBefore), len(logsAfter))
	}

	processed := constants.SettlementStatusProcessed
	updated, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{TransferStatus: &processed, TransferDate: &transferDate})
	if err != nil {
		t.Fatalf("mark processed with date failed: %v", err)
	}
	if updated.TransferDate == nil || !updated.TransferDate.Equal(transferDate) {
		t.Fatalf("unexpected transfer date: %v", updated.TransferDate)
	}
	if _, err := env.settlements.UpdateStatus(id, 1, SettlementUpdateInput{ClearTransferDate: true}); !errors.Is(err, ErrTransferDateStatusInvalid) {
		t.Fatalf("processed record must keep its transfer date, got %v", err)
	}

	corrected := transferDate.AddDate(0, 0, 1)
	updated, err = env.settlements.UpdateDates(id, 1, SettlementDatesInput{TransferDate: &corrected})
	if err != nil {
		t.Fatalf("date correction on processed record failed: %v", err)
	}
	if !updated.TransferDate.Equal(corrected) {
		t.Fatalf("expected corrected transfer date, got %v", updated.TransferDate)
	}
}

func TestSettlementStateMachine(t *testing.T) {
	tests := []struct {
		from       string
		transition SettlementTransition
		want       string
		ok         bool
	}{
		{constants.SettlementStatusPending, TransitionProcess, constants.SettlementStatusProcessed, true},
		{constants.SettlementStatusProcessed, TransitionComplete, constants.SettlementStatusComplete, true},
		{constants.SettlementStatusProcessed, TransitionRevert, constants.SettlementStatusPending, true},
		{constants.SettlementStatusComplete, TransitionRevert, "", false},
		{constants.SettlementStatusPending, TransitionComplete, "", false},
		{constants.SettlementStatusComplete, TransitionProcess, "", false},
		{constants.SettlementStatusPending, TransitionRevert, "", false},
	}
	for _, tc := range tests {
		got, ok := nextSettlementStatus(tc.from, tc.transition)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s --%s--> got (%q,%v), want (%q,%v)", tc.from, tc.transition, got, ok, tc.want, tc.ok)
		}
	}
}
