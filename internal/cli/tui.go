package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/io"
	"github.com/matzehuels/idplease/pkg/passport"
	"github.com/matzehuels/idplease/pkg/pipeline"
	"github.com/matzehuels/idplease/pkg/session"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listEditedStyle   = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Fields
// =============================================================================

// fieldSpec ties an editable card field to its override and record slots.
type fieldSpec struct {
	label    string
	date     bool
	override func(*passport.Overrides) *string
	value    func(passport.Record) string
}

var editableFields = []fieldSpec{
	{"First name", false, func(o *passport.Overrides) *string { return &o.FirstName }, func(r passport.Record) string { return r.FirstName }},
	{"Surname", false, func(o *passport.Overrides) *string { return &o.Surname }, func(r passport.Record) string { return r.Surname }},
	{"Token ID", false, func(o *passport.Overrides) *string { return &o.TokenID }, func(r passport.Record) string { return r.TokenID }},
	{"Reputation", false, func(o *passport.Overrides) *string { return &o.Reputation }, func(r passport.Record) string { return r.Reputation }},
	{"Line", false, func(o *passport.Overrides) *string { return &o.LineNumber }, func(r passport.Record) string { return r.LineNumber }},
	{"Authority", false, func(o *passport.Overrides) *string { return &o.Authority }, func(r passport.Record) string { return r.Authority }},
	{"Issued", true, func(o *passport.Overrides) *string { return &o.MintDate }, func(r passport.Record) string { return r.MintDate }},
	{"Expires", true, func(o *passport.Overrides) *string { return &o.ExpiryDate }, func(r passport.Record) string { return r.ExpiryDate }},
	{"Passport no", false, func(o *passport.Overrides) *string { return &o.PassportNumber }, func(r passport.Record) string { return r.PassportNumber }},
	{"Wallet", false, func(o *passport.Overrides) *string { return &o.Wallet }, func(r passport.Record) string { return r.Wallet }},
	{"Avatar", false, func(o *passport.Overrides) *string { return &o.Avatar }, func(r passport.Record) string { return r.Avatar }},
}

// =============================================================================
// PassportModel - Interactive lookup and editing
// =============================================================================

type focus int

const (
	focusHandle focus = iota // typing a handle
	focusFields              // moving through the card fields
	focusEdit                // editing one field
)

// runDoneMsg carries a finished pipeline run back to the model.
type runDoneMsg struct {
	run    *session.Run
	result *pipeline.Result
	err    error
}

// savedMsg reports a file written from the interactive view.
type savedMsg struct {
	path string
	err  error
}

// draftStore persists overrides between sessions. *session.FileStore
// implements it.
type draftStore interface {
	Get(ctx context.Context, handle string) (*session.Draft, error)
	Set(ctx context.Context, d *session.Draft) error
	Delete(ctx context.Context, handle string) error
}

// PassportModel is the bubbletea model for the interactive command.
//
// Each submitted handle starts a pipeline run through a session latch, so
// when handles are submitted faster than lookups complete only the most
// recent one is shown.
type PassportModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	drafts draftStore // nil disables drafts
	latch  *session.Session[*pipeline.Result]

	Input     string
	Focus     focus
	Cursor    int
	EditBuf   string
	Overrides passport.Overrides
	Result    *pipeline.Result
	Status    string
	Err       error

	// doc keeps the resolved data of the current handle so edits can be
	// rebuilt without network access.
	doc *io.Document
}

// NewPassportModel creates the interactive model. drafts may be nil.
func NewPassportModel(ctx context.Context, runner *pipeline.Runner, drafts draftStore) PassportModel {
	return PassportModel{
		ctx:    ctx,
		runner: runner,
		drafts: drafts,
		latch:  session.New[*pipeline.Result](),
	}
}

func (m PassportModel) Init() tea.Cmd {
	return nil
}

func (m PassportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.latch.Clear()
			return m, tea.Quit
		}
		switch m.Focus {
		case focusHandle:
			return m.updateHandle(msg)
		case focusFields:
			return m.updateFields(msg)
		case focusEdit:
			return m.updateEdit(msg)
		}

	case runDoneMsg:
		return m.finish(msg)

	case savedMsg:
		if msg.err != nil {
			m.Err = msg.err
		} else {
			m.Err = nil
			m.Status = "Wrote " + msg.path
		}
	}
	return m, nil
}

func (m PassportModel) updateHandle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyBackspace:
		if r := []rune(m.Input); len(r) > 0 {
			m.Input = string(r[:len(r)-1])
		}
	case tea.KeyTab:
		if m.Result != nil {
			m.Focus = focusFields
		}
	case tea.KeySpace:
		// handles never contain spaces
	case tea.KeyRunes:
		m.Input += string(msg.Runes)
	}
	return m, nil
}

func (m PassportModel) updateFields(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "tab", "/":
		m.Focus = focusHandle
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(editableFields)-1 {
			m.Cursor++
		}
	case "enter":
		m.EditBuf = *editableFields[m.Cursor].override(&m.Overrides)
		m.Focus = focusEdit
	case "x":
		*editableFields[m.Cursor].override(&m.Overrides) = ""
		return m.rebuild()
	case "d":
		m.Overrides = passport.Overrides{}
		return m.rebuild()
	case "r":
		return m, m.writePNG()
	case "e":
		return m, m.writeRecord()
	}
	return m, nil
}

func (m PassportModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Focus = focusFields
	case tea.KeyEnter:
		field := editableFields[m.Cursor]
		value := strings.TrimSpace(m.EditBuf)
		if field.date && value != "" && passport.FormatDate(value) == "" {
			m.Err = apperrors.New(apperrors.ErrCodeInvalidDate, "%s must be YYYY-MM-DD", field.label)
			return m, nil
		}
		*field.override(&m.Overrides) = value
		m.Focus = focusFields
		return m.rebuild()
	case tea.KeyBackspace:
		if r := []rune(m.EditBuf); len(r) > 0 {
			m.EditBuf = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.EditBuf += " "
	case tea.KeyRunes:
		m.EditBuf += string(msg.Runes)
	}
	return m, nil
}

// submit starts a lookup for the typed handle. Re-submitting the handle
// that is already current does nothing.
func (m PassportModel) submit() (tea.Model, tea.Cmd) {
	run, ok := m.latch.Submit(m.ctx, m.Input)
	if !ok {
		return m, nil
	}
	m.Err = nil
	m.Result = nil
	m.doc = nil
	m.Overrides = m.loadDraft(run.Handle)
	m.Status = "Resolving " + run.Handle + "..."
	return m, m.execute(run, pipeline.Options{Handle: run.Handle, Overrides: m.Overrides})
}

// rebuild re-renders the current handle with the edited overrides from the
// data already resolved.
func (m PassportModel) rebuild() (tea.Model, tea.Cmd) {
	if m.doc == nil {
		return m, nil
	}
	m.saveDraft()
	m.latch.Clear()
	run, ok := m.latch.Submit(m.ctx, m.doc.Handle)
	if !ok {
		return m, nil
	}
	m.Err = nil
	m.Status = "Rendering..."
	doc := *m.doc
	return m, m.execute(run, pipeline.Options{Document: &doc, Overrides: m.Overrides})
}

func (m PassportModel) execute(run *session.Run, opts pipeline.Options) tea.Cmd {
	runner := m.runner
	return func() tea.Msg {
		res, err := runner.Execute(run.Context(), opts)
		return runDoneMsg{run: run, result: res, err: err}
	}
}

// finish applies a completed run unless a newer submission superseded it.
func (m PassportModel) finish(msg runDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if !m.latch.IsCurrent(msg.run) {
			return m, nil
		}
		// Allow retrying the same handle.
		m.latch.Clear()
		m.Status = ""
		m.Err = msg.err
		return m, nil
	}
	if !m.latch.Commit(msg.run, msg.result) {
		return m, nil
	}
	m.Result = msg.result
	if msg.result.Resolution != nil {
		doc := msg.result.Document()
		m.doc = &doc
	}
	m.Status = fmt.Sprintf("%s ready", msg.run.Handle)
	if m.Focus == focusHandle {
		m.Focus = focusFields
		m.Input = ""
	}
	return m, nil
}

func (m PassportModel) loadDraft(handle string) passport.Overrides {
	if m.drafts == nil {
		return passport.Overrides{}
	}
	d, err := m.drafts.Get(m.ctx, handle)
	if err != nil || d == nil {
		return passport.Overrides{}
	}
	return d.Overrides
}

func (m PassportModel) saveDraft() {
	if m.drafts == nil || m.doc == nil {
		return
	}
	if m.Overrides == (passport.Overrides{}) {
		m.drafts.Delete(m.ctx, m.doc.Handle)
		return
	}
	m.drafts.Set(m.ctx, &session.Draft{Handle: m.doc.Handle, Overrides: m.Overrides})
}

func (m PassportModel) writePNG() tea.Cmd {
	if m.Result == nil {
		return nil
	}
	path, data := m.Result.Filename, m.Result.PNG
	return func() tea.Msg {
		return savedMsg{path: path, err: writeFile(path, data)}
	}
}

func (m PassportModel) writeRecord() tea.Cmd {
	if m.Result == nil {
		return nil
	}
	doc := m.Result.Document()
	path := strings.TrimSuffix(m.Result.Filename, ".png") + ".json"
	return func() tea.Msg {
		return savedMsg{path: path, err: io.ExportRecord(doc, path)}
	}
}

func (m PassportModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("6529 NATION"))
	b.WriteString(listDimStyle.Render("  digital passport"))
	b.WriteString("\n\n")

	cursor := ""
	if m.Focus == focusHandle {
		cursor = "█"
	}
	b.WriteString(listDimStyle.Render("Handle "))
	b.WriteString(listNormalStyle.Render(m.Input + cursor))
	b.WriteString("\n\n")

	switch {
	case m.Err != nil:
		msg := apperrors.UserMessage(m.Err)
		if apperrors.Is(m.Err, apperrors.ErrCodeNotFound) {
			msg = "Identity not found."
		}
		b.WriteString(styleIconError.Render(iconError) + " " + msg)
		b.WriteString("\n\n")
	case m.Status != "":
		b.WriteString(styleIconInfo.Render(iconInfo) + " " + StyleDim.Render(m.Status))
		b.WriteString("\n\n")
	}

	if m.Result != nil {
		b.WriteString(m.fieldTable())
		b.WriteString("\n")
		if m.Result.AvatarErr != nil {
			b.WriteString(StyleWarning.Render(iconWarning + " avatar unavailable"))
			b.WriteString("\n")
		}
		if m.Result.Resolution != nil {
			b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d log entries · %s",
				m.Result.Stats.LogCount, m.Result.Stats.ResolveTime.Round(time.Millisecond))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(listDimStyle.Render(m.help()))
	return b.String()
}

func (m PassportModel) fieldTable() string {
	rec := m.Result.Record
	rows := make([][]string, len(editableFields))
	for i, f := range editableFields {
		marker := "  "
		if m.Focus != focusHandle && i == m.Cursor {
			marker = "▸ "
		}
		value := f.value(rec)
		if f.date {
			value = displayDate(value)
		}
		if m.Focus == focusEdit && i == m.Cursor {
			value = m.EditBuf + "█"
		}
		rows[i] = []string{marker, f.label, orDash(value)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Field", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(editableFields) {
				return lipgloss.NewStyle()
			}
			if m.Focus != focusHandle && row == m.Cursor {
				return listSelectedStyle
			}
			if *editableFields[row].override(&m.Overrides) != "" {
				return listEditedStyle
			}
			if col == 1 {
				return listDimStyle
			}
			return listNormalStyle
		}).
		Render()
}

func (m PassportModel) help() string {
	switch m.Focus {
	case focusFields:
		return "↑/↓ navigate  ⏎ edit  x reset  d reset all  r save png  e export  tab handle  q quit"
	case focusEdit:
		return "⏎ apply  esc cancel"
	default:
		if m.Result != nil {
			return "⏎ look up  tab fields  esc quit"
		}
		return "⏎ look up  esc quit"
	}
}
