// Package linkflow is the state machine behind the "link document" dialog:
// pick a category, load its candidates, choose one, submit.
//
// Every candidate fetch is tagged with a Ticket. A response whose ticket no
// longer matches the current category and sequence is dropped, so a slow
// Contact response can never fill the list after the user switched to Lead.
package linkflow

import (
	"errors"

	"docexplorer/internal/docapi"
)

// Phase is the dialog's state.
type Phase int

const (
	Closed Phase = iota
	Fetching
	CandidatesLoaded
	NoData
	Submitting
	Failed
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Fetching:
		return "fetching"
	case CandidatesLoaded:
		return "loaded"
	case NoData:
		return "no-data"
	case Submitting:
		return "submitting"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ValidationError is raised before any request when required input is missing.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "please select a valid " + e.Field
}

// ErrBusy is returned for operations refused while a submission is in flight.
var ErrBusy = errors.New("link submission in progress")

// Ticket correlates a candidate fetch with the selection that issued it.
type Ticket struct {
	Category docapi.Category
	Seq      uint64
}

// Submission is the request to send once BeginSubmit succeeds.
type Submission struct {
	DocumentID string
	Category   docapi.Category
	EntityID   string
}

// Flow holds the dialog state. The zero value is Closed.
type Flow struct {
	documentID string
	phase      Phase
	category   docapi.Category
	seq        uint64
	candidates []docapi.Candidate
	chosen     string
	message    string
}

// Open targets documentID and clears any previous state.
func (f *Flow) Open(documentID string) {
	seq := f.seq
	*f = Flow{documentID: documentID, seq: seq}
}

// Active reports whether the dialog is showing.
func (f *Flow) Active() bool {
	return f.documentID != ""
}

// DocumentID returns the document being linked.
func (f *Flow) DocumentID() string { return f.documentID }

// Phase returns the current phase.
func (f *Flow) Phase() Phase { return f.phase }

// Category returns the selected category.
func (f *Flow) Category() docapi.Category { return f.category }

// Candidates returns the loaded candidates.
func (f *Flow) Candidates() []docapi.Candidate { return f.candidates }

// Chosen returns the chosen candidate id, or "".
func (f *Flow) Chosen() string { return f.chosen }

// Message returns the last error text to display, or "".
func (f *Flow) Message() string { return f.message }

// CanSubmit reports whether the submit control is enabled.
func (f *Flow) CanSubmit() bool {
	return f.phase == CandidatesLoaded && f.chosen != ""
}

// SelectCategory switches category, drops the previous candidates and
// returns the ticket for the fetch to issue.
func (f *Flow) SelectCategory(c docapi.Category) (Ticket, error) {
	if f.phase == Submitting {
		return Ticket{}, ErrBusy
	}
	if c != docapi.CategoryContact && c != docapi.CategoryLead {
		return Ticket{}, &ValidationError{Field: "category"}
	}
	f.seq++
	f.category = c
	f.candidates = nil
	f.chosen = ""
	f.message = ""
	f.phase = Fetching
	return Ticket{Category: c, Seq: f.seq}, nil
}

// Apply delivers the result of the fetch issued for t. It returns false when
// the result is stale and was ignored.
func (f *Flow) Apply(t Ticket, candidates []docapi.Candidate, err error) bool {
	if f.phase != Fetching || t.Category != f.category || t.Seq != f.seq {
		return false
	}
	switch {
	case err != nil:
		f.phase = Failed
		f.message = docapi.UserMessage(err, "Failed to fetch data.")
	case len(candidates) == 0:
		f.phase = NoData
	default:
		f.candidates = candidates
		f.phase = CandidatesLoaded
	}
	return true
}

// Choose selects a candidate by value. Unknown values are ignored.
func (f *Flow) Choose(value string) bool {
	if f.phase != CandidatesLoaded {
		return false
	}
	for _, c := range f.candidates {
		if c.Value == value {
			f.chosen = value
			return true
		}
	}
	return false
}

// BeginSubmit validates the selection and moves to Submitting.
func (f *Flow) BeginSubmit() (Submission, error) {
	switch {
	case f.phase == Submitting:
		return Submission{}, ErrBusy
	case f.category == docapi.CategoryNone:
		return Submission{}, &ValidationError{Field: "category"}
	case f.chosen == "" || f.phase != CandidatesLoaded:
		return Submission{}, &ValidationError{Field: f.category.String()}
	}
	f.phase = Submitting
	f.message = ""
	return Submission{DocumentID: f.documentID, Category: f.category, EntityID: f.chosen}, nil
}

// Finish records the submission outcome. On success the flow closes and
// Finish returns true so the caller can refresh anything that shows links.
// On failure the candidates stay loaded for a retry.
func (f *Flow) Finish(err error) bool {
	if f.phase != Submitting {
		return false
	}
	if err != nil {
		f.phase = CandidatesLoaded
		f.message = docapi.UserMessage(err, "Something went wrong while linking.")
		return false
	}
	f.reset()
	return true
}

// Cancel closes the dialog from any phase except Submitting.
func (f *Flow) Cancel() bool {
	if f.phase == Submitting {
		return false
	}
	f.reset()
	return true
}

// reset clears everything but the sequence, which must keep growing so late
// responses from before the reset stay stale.
func (f *Flow) reset() {
	seq := f.seq
	*f = Flow{seq: seq}
}
