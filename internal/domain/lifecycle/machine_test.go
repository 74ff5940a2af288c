package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
)

type fakeDoc struct {
	docType DocType
	status  Status
	trail   []Record
}

func (d *fakeDoc) DocumentType() DocType { return d.docType }
func (d *fakeDoc) CurrentStatus() Status { return d.status }
func (d *fakeDoc) ApplyTransition(r Record) {
	d.status = r.To
	d.trail = append(d.trail, r)
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusCreated, InitialStatus(DocTypeInvoice))
	assert.Equal(t, StatusPending, InitialStatus(DocTypeReturn))
	assert.Equal(t, StatusPending, InitialStatus(DocTypeCommission))
	assert.Equal(t, StatusPending, InitialStatus(DocTypeEInvoice))
}

func TestCanTransition_Tables(t *testing.T) {
	tests := []struct {
		dt      DocType
		from    Status
		to      Status
		allowed bool
	}{
		{DocTypeInvoice, StatusCreated, StatusVoided, true},
		{DocTypeInvoice, StatusVoided, StatusCreated, false},

		{DocTypeReturn, StatusPending, StatusApproved, true},
		{DocTypeReturn, StatusPending, StatusRejected, true},
		{DocTypeReturn, StatusApproved, StatusCompleted, true},
		{DocTypeReturn, StatusPending, StatusCompleted, false},
		{DocTypeReturn, StatusRejected, StatusApproved, false},
		{DocTypeReturn, StatusCompleted, StatusPending, false},

		{DocTypeCommission, StatusPending, StatusApproved, true},
		{DocTypeCommission, StatusApproved, StatusPaid, true},
		{DocTypeCommission, StatusPending, StatusPaid, false},
		{DocTypeCommission, StatusPaid, StatusApproved, false},

		{DocTypeEInvoice, StatusPending, StatusGenerated, true},
		{DocTypeEInvoice, StatusPending, StatusFailed, true},
		{DocTypeEInvoice, StatusGenerated, StatusSubmitted, true},
		{DocTypeEInvoice, StatusGenerated, StatusCancelled, true},
		{DocTypeEInvoice, StatusSubmitted, StatusCancelled, true},
		{DocTypeEInvoice, StatusSubmitted, StatusGenerated, false},
		{DocTypeEInvoice, StatusCancelled, StatusGenerated, false},
	}

	for _, tt := range tests {
		got := CanTransition(tt.dt, tt.from, tt.to)
		assert.Equal(t, tt.allowed, got, "%s: %s -> %s", tt.dt, tt.from, tt.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(DocTypeInvoice, StatusVoided))
	assert.False(t, IsTerminal(DocTypeInvoice, StatusCreated))

	assert.True(t, IsTerminal(DocTypeReturn, StatusRejected))
	assert.True(t, IsTerminal(DocTypeReturn, StatusCompleted))
	assert.False(t, IsTerminal(DocTypeReturn, StatusApproved))

	assert.True(t, IsTerminal(DocTypeCommission, StatusPaid))

	assert.True(t, IsTerminal(DocTypeEInvoice, StatusCancelled))
	assert.True(t, IsTerminal(DocTypeEInvoice, StatusFailed))
	assert.False(t, IsTerminal(DocTypeEInvoice, StatusSubmitted))
}

func TestResolveAction(t *testing.T) {
	target, err := ResolveAction(DocTypeReturn, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, target)

	// Cancel means void for invoices, pay accepts complete for commissions.
	target, err = ResolveAction(DocTypeInvoice, ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, StatusVoided, target)

	target, err = ResolveAction(DocTypeCommission, ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, target)

	_, err = ResolveAction(DocTypeReturn, ActionPay)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestTransition_RecordsAudit(t *testing.T) {
	doc := &fakeDoc{docType: DocTypeReturn, status: StatusPending}
	at := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	err := Transition(doc, StatusApproved, Meta{Actor: "manager-7", Reason: "damaged goods", At: at})
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, doc.status)
	require.Len(t, doc.trail, 1)
	rec := doc.trail[0]
	assert.Equal(t, StatusPending, rec.From)
	assert.Equal(t, StatusApproved, rec.To)
	assert.Equal(t, "manager-7", rec.Actor)
	assert.Equal(t, "damaged goods", rec.Reason)
	assert.Equal(t, at, rec.At)
}

func TestTransition_DefaultsActorAndTime(t *testing.T) {
	doc := &fakeDoc{docType: DocTypeInvoice, status: StatusCreated}

	err := Transition(doc, StatusVoided, Meta{})
	require.NoError(t, err)

	require.Len(t, doc.trail, 1)
	assert.Equal(t, "system", doc.trail[0].Actor)
	assert.False(t, doc.trail[0].At.IsZero())
}

func TestTransition_IllegalDoesNotMutate(t *testing.T) {
	doc := &fakeDoc{docType: DocTypeReturn, status: StatusCompleted}

	err := Transition(doc, StatusApproved, Meta{Actor: "manager-7"})
	require.Error(t, err)
	assert.True(t, apperror.IsIllegalTransition(err), "got %v", err)

	assert.Equal(t, StatusCompleted, doc.status)
	assert.Empty(t, doc.trail)
}

func TestTransition_TerminalRejectsSameState(t *testing.T) {
	doc := &fakeDoc{docType: DocTypeInvoice, status: StatusVoided}

	err := Transition(doc, StatusVoided, Meta{})
	require.Error(t, err)
	assert.True(t, apperror.IsIllegalTransition(err))
}

func TestTransition_EInvoiceCancelRequiresReason(t *testing.T) {
	doc := &fakeDoc{docType: DocTypeEInvoice, status: StatusSubmitted}

	err := Transition(doc, StatusCancelled, Meta{Actor: "ops"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Equal(t, StatusSubmitted, doc.status)

	err = Transition(doc, StatusCancelled, Meta{Actor: "ops", Reason: "1"})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, doc.status)
}

func TestAllowedActions(t *testing.T) {
	actions := AllowedActions(DocTypeReturn, StatusPending)
	assert.ElementsMatch(t, []Action{ActionApprove, ActionReject}, actions)

	assert.Empty(t, AllowedActions(DocTypeReturn, StatusCompleted))
}
