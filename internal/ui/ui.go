package ui

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/JAlbrecht-svg/inkasso-console/internal/controller"
	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

// Deps are the controllers the TUI drives. Endpoint is read on every status
// bar refresh so endpoint changes show up without a restart.
type Deps struct {
	Cases    *controller.CaseList
	Detail   *controller.CaseDetail
	Endpoint func() string
	Theme    string
}

// UI is the case workbench: case list on the left, the selected case with
// its payments and actions on the right.
type UI struct {
	app    *tview.Application
	cases  *controller.CaseList
	detail *controller.CaseDetail
	logger *log.Logger

	endpoint func() string

	// Layout components
	pages         *tview.Pages
	layout        *tview.Flex
	searchInput   *tview.InputField
	statusFilter  *tview.DropDown
	caseTable     *tview.Table
	caseInfo      *tview.TextView
	paymentsTable *tview.Table
	actionsTable  *tview.Table
	statusBar     *tview.TextView

	theme        Theme
	hasTrueColor bool

	// wantedCase is the id selected in the case table. The detail drops loads
	// while busy, so it is re-requested once the detail is idle.
	wantedCase atomic.Value
	message    string

	renderMu    sync.Mutex
	running     int32
	following   int32
	unsubscribe []func()
	focusOrder  []tview.Primitive

	ctx    context.Context
	cancel context.CancelFunc
}

// NewUI wires the widgets to the controllers. Nothing is loaded until Start.
func NewUI(ctx context.Context, deps Deps, logger *log.Logger) *UI {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	uiCtx, cancel := context.WithCancel(ctx)

	ui := &UI{
		app:          tview.NewApplication(),
		cases:        deps.Cases,
		detail:       deps.Detail,
		endpoint:     deps.Endpoint,
		logger:       logger,
		theme:        themeByName(deps.Theme),
		hasTrueColor: detectTrueColor(),
		ctx:          uiCtx,
		cancel:       cancel,
	}
	if ui.endpoint == nil {
		ui.endpoint = func() string { return "" }
	}

	ui.setupLayout()
	ui.setupKeybindings()
	ui.applyTheme()

	ui.unsubscribe = append(ui.unsubscribe,
		ui.cases.Subscribe(ui.requestRender),
		ui.detail.Subscribe(ui.requestRender),
		ui.detail.Payments.Subscribe(ui.requestRender),
		ui.detail.Actions.Subscribe(ui.requestRender),
	)
	ui.render()
	return ui
}

// Start loads the case list and runs the application until ctx is done or
// the user quits.
func (ui *UI) Start(ctx context.Context) error {
	ui.logger.Println("Starting TUI application")

	go func() {
		if err := ui.cases.Load(ui.ctx); err != nil {
			ui.logger.Printf("Failed to load cases: %v", err)
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			ui.logger.Println("External context cancelled, stopping TUI")
		case <-ui.ctx.Done():
		}
		ui.cancel()
		ui.app.Stop()
	}()

	atomic.StoreInt32(&ui.running, 1)
	err := ui.app.SetRoot(ui.pages, true).Run()
	atomic.StoreInt32(&ui.running, 0)
	ui.Stop()
	ui.logger.Printf("app.Run() returned with error: %v", err)
	return err
}

// Stop stops the application and detaches from the controllers.
func (ui *UI) Stop() {
	for _, fn := range ui.unsubscribe {
		fn()
	}
	ui.unsubscribe = nil
	ui.cases.Close()
	ui.cancel()
	if atomic.LoadInt32(&ui.running) == 1 {
		ui.app.Stop()
	}
}

func (ui *UI) isRunning() bool { return atomic.LoadInt32(&ui.running) == 1 }

// requestRender is the controller callback. Controllers notify from worker
// goroutines, so drawing goes through the application queue.
func (ui *UI) requestRender() {
	ui.followSelection()
	if ui.isRunning() {
		ui.app.QueueUpdateDraw(ui.render)
		return
	}
	ui.render()
}

// run executes a blocking controller call off the draw goroutine.
func (ui *UI) run(fn func(ctx context.Context)) {
	go fn(ui.ctx)
}

func (ui *UI) setupLayout() {
	ui.searchInput = tview.NewInputField().
		SetLabel("Search: ").
		SetPlaceholder("reference or debtor").
		SetFieldWidth(0)
	ui.searchInput.SetChangedFunc(func(text string) {
		ui.cases.SearchTextChanged(ui.ctx, text)
	})
	ui.searchInput.SetDoneFunc(func(key tcell.Key) {
		ui.app.SetFocus(ui.caseTable)
	})

	options := []string{statusLabel("")}
	for _, s := range model.Statuses {
		options = append(options, statusLabel(s))
	}
	ui.statusFilter = tview.NewDropDown().SetLabel("Status: ")
	ui.statusFilter.SetOptions(options, func(_ string, index int) {
		var status model.CaseStatus
		if index > 0 {
			status = model.Statuses[index-1]
		}
		if status == ui.cases.Filter().Status {
			return
		}
		ui.run(func(ctx context.Context) { _ = ui.cases.SetStatusFilter(ctx, status) })
	})
	ui.statusFilter.SetCurrentOption(0)

	ui.caseTable = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	ui.caseTable.SetBorder(true).SetTitle(" Cases ").SetTitleAlign(tview.AlignLeft)
	ui.caseTable.SetSelectionChangedFunc(func(row, _ int) {
		ui.openCase(ui.caseIDAt(row))
	})

	ui.caseInfo = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	ui.caseInfo.SetBorder(true).SetTitle(" Case ").SetTitleAlign(tview.AlignLeft)

	ui.paymentsTable = tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	ui.paymentsTable.SetBorder(true).SetTitle(" Payments ").SetTitleAlign(tview.AlignLeft)

	ui.actionsTable = tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	ui.actionsTable.SetBorder(true).SetTitle(" Actions ").SetTitleAlign(tview.AlignLeft)

	ui.statusBar = tview.NewTextView().SetDynamicColors(true)

	filters := tview.NewFlex().
		AddItem(ui.searchInput, 0, 2, false).
		AddItem(ui.statusFilter, 0, 1, false)

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(filters, 1, 0, false).
		AddItem(ui.caseTable, 0, 1, true)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.caseInfo, 11, 0, false).
		AddItem(ui.paymentsTable, 0, 1, false).
		AddItem(ui.actionsTable, 0, 1, false)

	ui.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().
			AddItem(left, 0, 3, true).
			AddItem(right, 0, 2, false), 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false)

	ui.pages = tview.NewPages().AddPage("main", ui.layout, true, true)
	ui.focusOrder = []tview.Primitive{ui.caseTable, ui.searchInput, ui.statusFilter, ui.paymentsTable, ui.actionsTable}
}

func (ui *UI) setupKeybindings() {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if ui.isDialogActive() {
			return event
		}
		switch event.Key() {
		case tcell.KeyTab:
			ui.cycleFocus()
			return nil
		case tcell.KeyCtrlC:
			ui.Stop()
			return nil
		}
		if event.Key() != tcell.KeyRune {
			return event
		}
		switch event.Rune() {
		case 'q':
			ui.Stop()
		case '/':
			ui.app.SetFocus(ui.searchInput)
		case 'f':
			ui.app.SetFocus(ui.statusFilter)
		case 'r':
			ui.run(func(ctx context.Context) { _ = ui.cases.FilterChanged(ctx) })
		case 's':
			ui.showStatusForm()
		case 'p':
			ui.showPaymentForm()
		case 'a':
			ui.showActionForm()
		case 'e':
			ui.showReasonForm()
		case 'n':
			ui.showNotesForm()
		case '?':
			ui.showHelp()
		default:
			return event
		}
		return nil
	})
}

// isDialogActive returns true when a form or input has focus so typing is
// not taken for shortcuts.
func (ui *UI) isDialogActive() bool {
	if ui.pages.GetPageCount() > 1 {
		return true
	}
	switch ui.app.GetFocus().(type) {
	case *tview.Form, *tview.Modal, *tview.InputField, *tview.DropDown, *tview.Button:
		return true
	}
	return false
}

func (ui *UI) cycleFocus() {
	current := ui.app.GetFocus()
	next := ui.focusOrder[0]
	for i, p := range ui.focusOrder {
		if p == current {
			next = ui.focusOrder[(i+1)%len(ui.focusOrder)]
			break
		}
	}
	ui.app.SetFocus(next)
}

func (ui *UI) caseIDAt(row int) string {
	if row < 1 {
		return ""
	}
	cell := ui.caseTable.GetCell(row, 0)
	if cell == nil {
		return ""
	}
	id, _ := cell.GetReference().(string)
	return id
}

// openCase makes id the case the detail pane should show.
func (ui *UI) openCase(id string) {
	if id == "" {
		return
	}
	ui.wantedCase.Store(id)
	ui.followSelection()
}

// followSelection loads the wanted case when the detail is idle and shows
// another one.
func (ui *UI) followSelection() {
	want, _ := ui.wantedCase.Load().(string)
	if want == "" || ui.detail.Busy() || ui.detail.CaseID() == want {
		return
	}
	if !atomic.CompareAndSwapInt32(&ui.following, 0, 1) {
		return
	}
	ui.run(func(ctx context.Context) {
		_ = ui.detail.LoadCaseDetails(ctx, want)
		atomic.StoreInt32(&ui.following, 0)
		ui.followSelection()
	})
}

// render redraws every widget from controller state. It must run on the draw
// goroutine once the application is running.
func (ui *UI) render() {
	ui.renderMu.Lock()
	defer ui.renderMu.Unlock()
	ui.renderCases()
	ui.renderDetail()
	ui.renderStatus()
}

func (ui *UI) header(table *tview.Table, titles ...string) {
	for col, title := range titles {
		table.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(ui.theme.TableHeader).
			SetBackgroundColor(ui.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
}

func (ui *UI) placeholder(table *tview.Table, text string) {
	table.SetCell(1, 0, tview.NewTableCell(text).
		SetTextColor(ui.theme.TableRowMuted).
		SetSelectable(false))
}

func (ui *UI) renderCases() {
	selectedRow, _ := ui.caseTable.GetSelection()
	selectedID := ui.caseIDAt(selectedRow)

	ui.caseTable.Clear()
	ui.header(ui.caseTable, "Reference", "Debtor", "Status", "Outstanding")

	items := ui.cases.Items()
	switch {
	case len(items) == 0 && ui.cases.State() == controller.Loading:
		ui.placeholder(ui.caseTable, "Loading...")
	case len(items) == 0:
		ui.placeholder(ui.caseTable, "No cases")
	}

	row := 1
	for _, c := range items {
		ui.caseTable.SetCell(row, 0, tview.NewTableCell(c.CaseReference).
			SetTextColor(ui.theme.TableRow).
			SetReference(c.ID).
			SetExpansion(1))
		ui.caseTable.SetCell(row, 1, tview.NewTableCell(c.DebtorName).
			SetTextColor(ui.theme.TableRow).
			SetExpansion(2))
		ui.caseTable.SetCell(row, 2, tview.NewTableCell(statusLabel(c.Status)).
			SetTextColor(ui.theme.statusColor(c.Status)))
		ui.caseTable.SetCell(row, 3, tview.NewTableCell(formatAmount(c.OutstandingAmount(), c.Currency)).
			SetTextColor(ui.theme.TableRow).
			SetAlign(tview.AlignRight))
		if c.ID == selectedID {
			selectedRow = row
		}
		row++
	}
	if len(items) > 0 {
		if selectedRow < 1 || selectedRow > len(items) {
			selectedRow = 1
		}
		ui.caseTable.Select(selectedRow, 0)
	}

	filter := ui.cases.Filter()
	title := fmt.Sprintf(" Cases (%d) ", len(items))
	if filter.Search != "" {
		title = fmt.Sprintf(" Cases (%d) matching %q ", len(items), filter.Search)
	}
	ui.caseTable.SetTitle(title)
}

func (ui *UI) renderDetail() {
	c, ok := ui.detail.Case()
	switch {
	case ok:
		ui.caseInfo.SetText(ui.caseSummary(c))
	case ui.detail.State() == controller.Loading:
		ui.caseInfo.SetText(fmt.Sprintf("[%s]Loading...[-]", ui.theme.TagMuted))
	case ui.detail.ErrorMessage() != "":
		ui.caseInfo.SetText(fmt.Sprintf("[%s]%s[-]", ui.theme.TagError, tview.Escape(ui.detail.ErrorMessage())))
	default:
		ui.caseInfo.SetText(fmt.Sprintf("[%s]Select a case[-]", ui.theme.TagMuted))
	}

	ui.paymentsTable.Clear()
	ui.header(ui.paymentsTable, "Date", "Amount", "Method", "Reference")
	payments := ui.detail.Payments.Items()
	if len(payments) == 0 {
		ui.placeholder(ui.paymentsTable, collectionPlaceholder(ui.detail.Payments.State(), ui.detail.Payments.ErrorMessage(), "No payments"))
	}
	for i, p := range payments {
		ui.paymentsTable.SetCell(i+1, 0, tview.NewTableCell(p.PaymentDate).SetReference(p.ID))
		ui.paymentsTable.SetCell(i+1, 1, tview.NewTableCell(formatAmount(p.Amount, c.Currency)).SetAlign(tview.AlignRight))
		ui.paymentsTable.SetCell(i+1, 2, tview.NewTableCell(p.PaymentMethod))
		ui.paymentsTable.SetCell(i+1, 3, tview.NewTableCell(p.Reference).SetExpansion(1))
	}

	ui.actionsTable.Clear()
	ui.header(ui.actionsTable, "Date", "Type", "Cost", "Notes")
	actions := ui.detail.Actions.Items()
	if len(actions) == 0 {
		ui.placeholder(ui.actionsTable, collectionPlaceholder(ui.detail.Actions.State(), ui.detail.Actions.ErrorMessage(), "No actions"))
	}
	for i, a := range actions {
		ui.actionsTable.SetCell(i+1, 0, tview.NewTableCell(a.ActionDate).SetReference(a.ID))
		ui.actionsTable.SetCell(i+1, 1, tview.NewTableCell(a.ActionType))
		ui.actionsTable.SetCell(i+1, 2, tview.NewTableCell(formatAmount(a.Cost, c.Currency)).SetAlign(tview.AlignRight))
		ui.actionsTable.SetCell(i+1, 3, tview.NewTableCell(a.Notes).SetExpansion(1))
	}
}

func collectionPlaceholder(state controller.State, errMsg, empty string) string {
	switch {
	case state == controller.Loading:
		return "Loading..."
	case errMsg != "":
		return errMsg
	default:
		return empty
	}
}

func (ui *UI) caseSummary(c model.Case) string {
	t := ui.theme
	var b strings.Builder
	fmt.Fprintf(&b, "[%s::b]%s[-::-]  [%s]%s[-]\n", t.TagAccent, tview.Escape(c.CaseReference), t.statusTag(c.Status), statusLabel(c.Status))
	fmt.Fprintf(&b, "Debtor:  %s\n", tview.Escape(orDash(c.DebtorName)))
	fmt.Fprintf(&b, "Order:   %s", tview.Escape(orDash(c.AuftragName)))
	if c.MandantName != "" {
		fmt.Fprintf(&b, " (%s)", tview.Escape(c.MandantName))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Claim:   %s  Fees: %s  Interest: %s\n",
		formatAmount(c.OriginalAmount, c.Currency), formatAmount(c.FeesAmount, c.Currency), formatAmount(c.InterestAmount, c.Currency))
	fmt.Fprintf(&b, "Paid:    %s\n", formatAmount(c.PaidAmount, c.Currency))
	outstandingTag := t.TagWarning
	if c.OutstandingAmount() <= 0 {
		outstandingTag = t.TagSuccess
	}
	fmt.Fprintf(&b, "Open:    [%s::b]%s[-::-]\n", outstandingTag, formatAmount(c.OutstandingAmount(), c.Currency))
	if c.ReasonForClaim != "" {
		fmt.Fprintf(&b, "Reason:  %s\n", tview.Escape(c.ReasonForClaim))
	}
	if c.DueDate != "" {
		fmt.Fprintf(&b, "Due:     %s\n", c.DueDate)
	}
	if msg := ui.detail.ErrorMessage(); msg != "" {
		fmt.Fprintf(&b, "[%s]%s[-]\n", t.TagError, tview.Escape(msg))
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (ui *UI) renderStatus() {
	t := ui.theme
	parts := []string{fmt.Sprintf("[%s]%s[-]", t.TagMuted, time.Now().Format("15:04:05"))}
	if ep := ui.endpoint(); ep != "" {
		parts = append(parts, fmt.Sprintf("[%s]%s[-]", t.TagMuted, tview.Escape(ep)))
	}
	switch {
	case ui.cases.ErrorMessage() != "":
		parts = append(parts, fmt.Sprintf("[%s]%s[-]", t.TagError, tview.Escape(ui.cases.ErrorMessage())))
	case ui.message != "":
		parts = append(parts, tview.Escape(ui.message))
	}
	parts = append(parts, fmt.Sprintf("[%s]/ search  f filter  s status  p payment  a action  e reason  n notes  ? help  q quit[-]", t.TagMuted))
	ui.statusBar.SetText(strings.Join(parts, " | "))
}

// setMessage shows msg in the status bar. Safe from any goroutine.
func (ui *UI) setMessage(msg string) {
	if ui.isRunning() {
		ui.app.QueueUpdateDraw(func() {
			ui.message = msg
			ui.render()
		})
		return
	}
	ui.message = msg
	ui.render()
}

func (ui *UI) applyTheme() {
	t := ui.theme
	surface, bg := t.Surface, t.Bg
	if !ui.hasTrueColor {
		// Keep the terminal's own background on 256-color terminals.
		surface, bg = tcell.ColorDefault, tcell.ColorDefault
	}
	for _, box := range []*tview.Box{ui.caseTable.Box, ui.caseInfo.Box, ui.paymentsTable.Box, ui.actionsTable.Box} {
		box.SetBackgroundColor(surface)
		box.SetBorderColor(t.Border)
		box.SetTitleColor(t.TextPrimary)
	}
	for _, table := range []*tview.Table{ui.caseTable, ui.paymentsTable, ui.actionsTable} {
		table.SetSelectedStyle(tcell.StyleDefault.Background(t.SelectionBg).Foreground(t.SelectionFg))
	}
	ui.caseInfo.SetTextColor(t.TextPrimary)
	ui.statusBar.SetBackgroundColor(bg)
	ui.statusBar.SetTextColor(t.TextPrimary)
	ui.searchInput.SetFieldBackgroundColor(t.SelectionBg).SetFieldTextColor(t.TextPrimary).SetLabelColor(t.TextMuted)
	ui.statusFilter.SetFieldBackgroundColor(t.SelectionBg).SetFieldTextColor(t.TextPrimary).SetLabelColor(t.TextMuted)
}
