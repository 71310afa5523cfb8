package linkflow

import (
	"errors"
	"testing"

	"docexplorer/internal/docapi"
)

var (
	contacts = []docapi.Candidate{{Label: "Ada", Value: "c1"}}
	leads    = []docapi.Candidate{{Label: "Acme", Value: "l1"}, {Label: "Globex", Value: "l2"}}
)

func openFlow(t *testing.T) *Flow {
	t.Helper()
	var f Flow
	f.Open("d1")
	if !f.Active() || f.Phase() != Closed {
		t.Fatalf("Open() left flow in %v", f.Phase())
	}
	return &f
}

func TestStaleResponsesDropped(t *testing.T) {
	orders := []struct {
		name       string
		leadsFirst bool
	}{
		{name: "contact response arrives last", leadsFirst: true},
		{name: "contact response arrives first", leadsFirst: false},
	}

	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			f := openFlow(t)
			contactTicket, _ := f.SelectCategory(docapi.CategoryContact)
			leadTicket, _ := f.SelectCategory(docapi.CategoryLead)

			if tt.leadsFirst {
				if !f.Apply(leadTicket, leads, nil) {
					t.Fatal("lead response rejected")
				}
				if f.Apply(contactTicket, contacts, nil) {
					t.Fatal("stale contact response accepted")
				}
			} else {
				if f.Apply(contactTicket, contacts, nil) {
					t.Fatal("stale contact response accepted")
				}
				if !f.Apply(leadTicket, leads, nil) {
					t.Fatal("lead response rejected")
				}
			}

			if f.Phase() != CandidatesLoaded || f.Category() != docapi.CategoryLead {
				t.Fatalf("phase=%v category=%v", f.Phase(), f.Category())
			}
			got := f.Candidates()
			if len(got) != 2 || got[0].Value != "l1" {
				t.Errorf("expected only lead candidates, got %+v", got)
			}
		})
	}
}

func TestSameCategoryReselectDropsEarlierFetch(t *testing.T) {
	f := openFlow(t)
	first, _ := f.SelectCategory(docapi.CategoryLead)
	second, _ := f.SelectCategory(docapi.CategoryLead)

	if f.Apply(first, leads[:1], nil) {
		t.Fatal("earlier fetch for the same category accepted")
	}
	if !f.Apply(second, leads, nil) {
		t.Fatal("current fetch rejected")
	}
}

func TestLateResponseAfterCancelDropped(t *testing.T) {
	f := openFlow(t)
	ticket, _ := f.SelectCategory(docapi.CategoryContact)
	f.Cancel()
	f.Open("d1")

	if f.Apply(ticket, contacts, nil) {
		t.Fatal("response from before cancel accepted")
	}
	if len(f.Candidates()) != 0 {
		t.Errorf("candidates populated: %+v", f.Candidates())
	}
}

func TestEmptyResultIsNoData(t *testing.T) {
	f := openFlow(t)
	ticket, _ := f.SelectCategory(docapi.CategoryContact)
	f.Apply(ticket, nil, nil)

	if f.Phase() != NoData {
		t.Fatalf("phase = %v, want no-data", f.Phase())
	}
	if f.CanSubmit() {
		t.Error("submit enabled with no data")
	}
	if _, err := f.BeginSubmit(); err == nil {
		t.Error("BeginSubmit succeeded with no data")
	}

	ticket, _ = f.SelectCategory(docapi.CategoryLead)
	f.Apply(ticket, leads, nil)
	if f.Phase() != CandidatesLoaded {
		t.Errorf("changing category did not leave no-data: %v", f.Phase())
	}
}

func TestFetchFailure(t *testing.T) {
	f := openFlow(t)
	ticket, _ := f.SelectCategory(docapi.CategoryLead)
	f.Apply(ticket, nil, &docapi.NetworkError{Op: "list leads", Err: errors.New("refused")})

	if f.Phase() != Failed {
		t.Fatalf("phase = %v, want failed", f.Phase())
	}
	if f.Message() != "Failed to fetch data." {
		t.Errorf("message = %q", f.Message())
	}
}

func TestSubmitValidation(t *testing.T) {
	f := openFlow(t)

	_, err := f.BeginSubmit()
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "category" {
		t.Fatalf("BeginSubmit() without category = %v", err)
	}

	ticket, _ := f.SelectCategory(docapi.CategoryContact)
	f.Apply(ticket, contacts, nil)
	_, err = f.BeginSubmit()
	if !errors.As(err, &ve) || ve.Field != "Contact" {
		t.Fatalf("BeginSubmit() without candidate = %v", err)
	}
	if f.Phase() != CandidatesLoaded {
		t.Errorf("validation failure changed phase to %v", f.Phase())
	}

	if f.Choose("not-listed") {
		t.Error("Choose accepted an unknown value")
	}
}

func TestSubmitSuccessResets(t *testing.T) {
	f := openFlow(t)
	ticket, _ := f.SelectCategory(docapi.CategoryLead)
	f.Apply(ticket, leads, nil)
	f.Choose("l2")

	sub, err := f.BeginSubmit()
	if err != nil {
		t.Fatalf("BeginSubmit() failed: %v", err)
	}
	if sub != (Submission{DocumentID: "d1", Category: docapi.CategoryLead, EntityID: "l2"}) {
		t.Errorf("unexpected submission: %+v", sub)
	}
	if f.Cancel() {
		t.Error("Cancel allowed while submitting")
	}
	if _, err := f.SelectCategory(docapi.CategoryContact); !errors.Is(err, ErrBusy) {
		t.Errorf("SelectCategory while submitting = %v, want ErrBusy", err)
	}
	if _, err := f.BeginSubmit(); !errors.Is(err, ErrBusy) {
		t.Errorf("second BeginSubmit = %v, want ErrBusy", err)
	}

	if !f.Finish(nil) {
		t.Fatal("Finish(nil) should report a link change")
	}
	if f.Active() || f.Phase() != Closed || f.Chosen() != "" || f.Category() != docapi.CategoryNone {
		t.Errorf("state not cleared after success: %+v", f)
	}
}

func TestSubmitFailureKeepsCandidates(t *testing.T) {
	f := openFlow(t)
	ticket, _ := f.SelectCategory(docapi.CategoryContact)
	f.Apply(ticket, contacts, nil)
	f.Choose("c1")
	f.BeginSubmit()

	if f.Finish(&docapi.ServerError{Op: "link document", Status: 500, Message: "entity not found"}) {
		t.Fatal("Finish(err) reported success")
	}
	if f.Phase() != CandidatesLoaded || len(f.Candidates()) != 1 || f.Chosen() != "c1" {
		t.Errorf("retry state lost: phase=%v candidates=%v chosen=%q", f.Phase(), f.Candidates(), f.Chosen())
	}
	if f.Message() != "entity not found" {
		t.Errorf("message = %q", f.Message())
	}
	if _, err := f.BeginSubmit(); err != nil {
		t.Errorf("retry BeginSubmit failed: %v", err)
	}
}
