package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

const dialogPage = "dialog"

// showDialog centers p above the main layout.
func (ui *UI) showDialog(title string, p tview.Primitive, width, height int) {
	if box, ok := p.(interface {
		SetBorder(bool) *tview.Box
	}); ok {
		box.SetBorder(true).
			SetTitle(fmt.Sprintf(" %s ", title)).
			SetBorderColor(ui.theme.FocusBorder).
			SetBackgroundColor(ui.theme.Surface)
	}
	frame := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
	ui.pages.AddPage(dialogPage, frame, true, true)
	ui.app.SetFocus(p)
}

func (ui *UI) closeDialog() {
	ui.pages.RemovePage(dialogPage)
	ui.app.SetFocus(ui.caseTable)
}

// requireCase returns the shown case or puts a hint in the status bar.
func (ui *UI) requireCase() (model.Case, bool) {
	c, ok := ui.detail.Case()
	if !ok {
		ui.setMessage("Select a case first")
	}
	return c, ok
}

// submit runs a write in the background and closes the dialog once the
// backend confirmed it. On failure the dialog stays open with the message.
func (ui *UI) submit(form *tview.Form, write func(ctx context.Context) bool, done string) {
	ui.run(func(ctx context.Context) {
		ok := write(ctx)
		ui.app.QueueUpdateDraw(func() {
			if ok {
				ui.closeDialog()
				ui.message = done
				ui.render()
				return
			}
			msg := ui.detail.ErrorMessage()
			if msg == "" {
				msg = "Still loading, try again"
			}
			form.SetTitle(fmt.Sprintf(" %s ", msg))
			form.SetTitleColor(ui.theme.Error)
		})
	})
}

func inputText(form *tview.Form, label string) string {
	if field, ok := form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return field.GetText()
	}
	return ""
}

func (ui *UI) newForm() *tview.Form {
	form := tview.NewForm()
	form.SetButtonBackgroundColor(ui.theme.SelectionBg).
		SetButtonTextColor(ui.theme.SelectionFg).
		SetFieldBackgroundColor(ui.theme.SelectionBg).
		SetFieldTextColor(ui.theme.TextPrimary).
		SetLabelColor(ui.theme.TextMuted)
	form.SetCancelFunc(ui.closeDialog)
	return form
}

func (ui *UI) showStatusForm() {
	c, ok := ui.requireCase()
	if !ok {
		return
	}

	labels := make([]string, len(model.Statuses))
	current := 0
	for i, s := range model.Statuses {
		labels[i] = statusLabel(s)
		if s == c.Status {
			current = i
		}
	}

	form := ui.newForm()
	selected := c.Status
	form.AddDropDown("Status", labels, current, func(_ string, index int) {
		if index >= 0 {
			selected = model.Statuses[index]
		}
	})
	form.AddButton("Save", func() {
		status := selected
		ui.submit(form, func(ctx context.Context) bool {
			ui.detail.SetSelectedStatus(status)
			return ui.detail.UpdateStatus(ctx, status)
		}, fmt.Sprintf("Status set to %s", statusLabel(status)))
	})
	form.AddButton("Cancel", ui.closeDialog)
	ui.showDialog("Change status", form, 50, 7)
}

func (ui *UI) showPaymentForm() {
	c, ok := ui.requireCase()
	if !ok {
		return
	}

	form := ui.newForm()
	form.AddInputField("Amount", "", 14, nil, nil)
	form.AddInputField("Date", today(), 12, nil, nil)
	form.AddInputField("Method", "", 20, nil, nil)
	form.AddInputField("Reference", "", 30, nil, nil)
	form.AddInputField("Notes", "", 40, nil, nil)
	form.AddButton("Save", func() {
		payload, err := paymentInput{
			Amount:    inputText(form, "Amount"),
			Date:      inputText(form, "Date"),
			Method:    inputText(form, "Method"),
			Reference: inputText(form, "Reference"),
			Notes:     inputText(form, "Notes"),
		}.payload(c.ID)
		if err != nil {
			form.SetTitle(fmt.Sprintf(" %s ", userMessage(err))).SetTitleColor(ui.theme.Error)
			return
		}
		ui.submit(form, func(ctx context.Context) bool {
			return ui.detail.SaveNewPayment(ctx, payload)
		}, fmt.Sprintf("Payment of %s recorded", formatAmount(payload.Amount, c.Currency)))
	})
	form.AddButton("Cancel", ui.closeDialog)
	ui.showDialog("Add payment", form, 60, 15)
}

func (ui *UI) showActionForm() {
	c, ok := ui.requireCase()
	if !ok {
		return
	}

	current := 0
	for i, t := range model.ActionTypes {
		if t == model.DefaultActionType {
			current = i
		}
	}
	actionType := model.ActionTypes[current]

	form := ui.newForm()
	form.AddDropDown("Type", model.ActionTypes, current, func(option string, _ int) {
		actionType = option
	})
	form.AddInputField("Date", today(), 12, nil, nil)
	form.AddInputField("Cost", "", 12, nil, nil)
	form.AddInputField("Notes", "", 40, nil, nil)
	form.AddButton("Save", func() {
		payload, err := actionInput{
			Type:  actionType,
			Date:  inputText(form, "Date"),
			Cost:  inputText(form, "Cost"),
			Notes: inputText(form, "Notes"),
		}.payload(c.ID)
		if err != nil {
			form.SetTitle(fmt.Sprintf(" %s ", userMessage(err))).SetTitleColor(ui.theme.Error)
			return
		}
		ui.submit(form, func(ctx context.Context) bool {
			return ui.detail.SaveNewAction(ctx, payload)
		}, fmt.Sprintf("Action %s recorded", payload.ActionType))
	})
	form.AddButton("Cancel", ui.closeDialog)
	ui.showDialog("Add action", form, 60, 13)
}

func (ui *UI) showReasonForm() {
	c, ok := ui.requireCase()
	if !ok {
		return
	}

	form := ui.newForm()
	form.AddInputField("Reason", c.ReasonForClaim, 50, nil, nil)
	form.AddButton("Save", func() {
		reason := inputText(form, "Reason")
		ui.submit(form, func(ctx context.Context) bool {
			return ui.detail.UpdateReason(ctx, reason)
		}, "Reason saved")
	})
	form.AddButton("Cancel", ui.closeDialog)
	ui.showDialog("Reason for claim", form, 70, 7)
}

// showNotesForm edits the notes of the action selected in the actions table.
func (ui *UI) showNotesForm() {
	if _, ok := ui.requireCase(); !ok {
		return
	}
	row, _ := ui.actionsTable.GetSelection()
	var actionID string
	if cell := ui.actionsTable.GetCell(row, 0); cell != nil {
		actionID, _ = cell.GetReference().(string)
	}
	action, found := ui.detail.Actions.Find(actionID)
	if !found {
		ui.setMessage("Select an action first")
		return
	}

	form := ui.newForm()
	form.AddInputField("Notes", action.Notes, 50, nil, nil)
	form.AddButton("Save", func() {
		notes := inputText(form, "Notes")
		ui.submit(form, func(ctx context.Context) bool {
			return ui.detail.UpdateActionNotes(ctx, action.ID, notes)
		}, "Notes saved")
	})
	form.AddButton("Cancel", ui.closeDialog)
	ui.showDialog(fmt.Sprintf("Notes: %s", action.ActionType), form, 70, 7)
}

func (ui *UI) showHelp() {
	text := tview.NewTextView().SetDynamicColors(true).SetText(fmt.Sprintf(`[%[1]s::b]Navigation[-::-]
  Tab      next pane
  /        search cases (applied after typing pauses)
  f        status filter
  r        reload the list

[%[1]s::b]Selected case[-::-]
  s        change status
  p        add payment
  a        add action
  e        edit reason for claim
  n        edit notes of the selected action

  q        quit
  Esc      close this help`, ui.theme.TagAccent))
	text.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		ui.closeDialog()
		return nil
	})
	ui.showDialog("Help", text, 60, 19)
}
