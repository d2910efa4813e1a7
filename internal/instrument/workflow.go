package instrument

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/port"
)

// State is a position in the instrument screen workflow.
type State string

const (
	Viewing       State = "viewing"
	Adding        State = "adding"
	Editing       State = "editing"
	DeleteConfirm State = "delete_confirm"
	SubmitPending State = "submit_pending"
)

// BannerKind colours the banner.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is the message shown above the instrument list after an action.
type Banner struct {
	Kind    BannerKind `json:"kind"`
	Message string     `json:"message"`
}

// Hooks run after a successful mutation: Reload refetches the list,
// Refresh asks the dashboard to refetch. Either may be nil.
type Hooks struct {
	Reload  func(ctx context.Context)
	Refresh func()
}

// Workflow drives one instrument screen:
//
//	Viewing → Adding → SubmitPending → Viewing | Adding
//	Viewing → Editing → SubmitPending → Viewing | Editing
//	Viewing → DeleteConfirm → SubmitPending → Viewing
//	Adding | Editing | DeleteConfirm → Viewing on cancel
type Workflow struct {
	kind  domain.InstrumentKind
	store port.InstrumentStore
	hooks Hooks

	mu       sync.Mutex
	state    State
	targetID string
	banner   *Banner
}

// NewWorkflow starts in Viewing.
func NewWorkflow(kind domain.InstrumentKind, store port.InstrumentStore, hooks Hooks) *Workflow {
	return &Workflow{kind: kind, store: store, hooks: hooks, state: Viewing}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Banner returns the last banner, or nil.
func (w *Workflow) Banner() *Banner {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.banner == nil {
		return nil
	}
	b := *w.banner
	return &b
}

// Target is the instrument id being edited or deleted.
func (w *Workflow) Target() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.targetID
}

func (w *Workflow) transition(action string, to State, from ...State) error {
	for _, f := range from {
		if w.state == f {
			w.state = to
			return nil
		}
	}
	return &domain.ErrInvalidTransition{From: string(w.state), Action: action}
}

// StartAdd opens an empty form.
func (w *Workflow) StartAdd() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.transition("add", Adding, Viewing); err != nil {
		return err
	}
	w.targetID = ""
	w.banner = nil
	return nil
}

// StartEdit opens the form for an existing instrument.
func (w *Workflow) StartEdit(id string) error {
	return w.startRow("edit", Editing, id)
}

// StartDelete asks for confirmation before deleting id.
func (w *Workflow) StartDelete(id string) error {
	return w.startRow("delete", DeleteConfirm, id)
}

func (w *Workflow) startRow(action string, to State, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &domain.ErrValidation{Field: "instrument_id", Message: "required"}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.transition(action, to, Viewing); err != nil {
		return err
	}
	w.targetID = id
	w.banner = nil
	return nil
}

// ConfirmPrompt is the question shown in DeleteConfirm.
func (w *Workflow) ConfirmPrompt() string {
	return fmt.Sprintf("Are you sure you want to delete %s %s?", strings.ToLower(w.kind.Title()), w.Target())
}

// Cancel abandons the open form or delete confirmation.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.transition("cancel", Viewing, Adding, Editing, DeleteConfirm); err != nil {
		return err
	}
	w.targetID = ""
	return nil
}

// Submit validates form and sends it. An invalid form never reaches the
// store and leaves the workflow where it was. A failed send returns to the
// form with an error banner.
func (w *Workflow) Submit(ctx context.Context, form Form) error {
	w.mu.Lock()
	from := w.state
	if from != Adding && from != Editing {
		w.mu.Unlock()
		return &domain.ErrInvalidTransition{From: string(from), Action: "submit"}
	}
	if form.Kind() != w.kind {
		w.mu.Unlock()
		return &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("form is for %s, screen is %s", form.Kind(), w.kind)}
	}
	payload, err := form.Payload()
	if err != nil {
		w.banner = &Banner{Kind: BannerError, Message: validationMessage(err)}
		w.mu.Unlock()
		return err
	}
	w.state = SubmitPending
	target := w.targetID
	w.mu.Unlock()

	verb, past := "add", "added"
	if from == Adding {
		err = w.store.CreateInstrument(ctx, w.kind, payload)
	} else {
		verb, past = "update", "updated"
		err = w.store.UpdateInstrument(ctx, w.kind, target, payload)
	}

	if err != nil {
		w.finish(from, &Banner{Kind: BannerError, Message: fmt.Sprintf("Failed to %s %s: %s", verb, strings.ToLower(w.kind.Title()), Detail(err))})
		return err
	}
	w.finish(Viewing, &Banner{Kind: BannerSuccess, Message: fmt.Sprintf("%s %s successfully!", w.kind.Title(), past)})
	w.afterSuccess(ctx)
	return nil
}

// ConfirmDelete deletes the instrument chosen by StartDelete. Success or
// failure both end in Viewing with a banner.
func (w *Workflow) ConfirmDelete(ctx context.Context) error {
	w.mu.Lock()
	if err := w.transition("confirm delete", SubmitPending, DeleteConfirm); err != nil {
		w.mu.Unlock()
		return err
	}
	id := w.targetID
	w.mu.Unlock()

	if err := w.store.DeleteInstrument(ctx, w.kind, id); err != nil {
		w.finish(Viewing, &Banner{Kind: BannerError, Message: fmt.Sprintf("Failed to delete %s: %s", strings.ToLower(w.kind.Title()), Detail(err))})
		return err
	}
	w.finish(Viewing, &Banner{Kind: BannerSuccess, Message: fmt.Sprintf("%s %s deleted successfully!", w.kind.Title(), id)})
	w.afterSuccess(ctx)
	return nil
}

func (w *Workflow) finish(to State, b *Banner) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = to
	w.banner = b
	if to == Viewing {
		w.targetID = ""
	}
}

func (w *Workflow) afterSuccess(ctx context.Context) {
	if w.hooks.Reload != nil {
		w.hooks.Reload(ctx)
	}
	if w.hooks.Refresh != nil {
		w.hooks.Refresh()
	}
}

// Detail is the text shown for a failed call: the backend's own detail
// when it sent one.
func Detail(err error) string {
	var httpErr *domain.ErrHTTP
	if errors.As(err, &httpErr) && httpErr.Detail != "" {
		return httpErr.Detail
	}
	return err.Error()
}

func validationMessage(err error) string {
	var v *domain.ErrValidation
	if errors.As(err, &v) {
		if v.Message == RequiredFieldsMessage {
			return RequiredFieldsMessage
		}
		return fmt.Sprintf("%s %s", v.Field, v.Message)
	}
	return err.Error()
}
