package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"docexplorer/internal/docapi"
	"docexplorer/internal/linkflow"
)

var linkCategories = []docapi.Category{docapi.CategoryContact, docapi.CategoryLead}

type linkFocus int

const (
	focusCategory linkFocus = iota
	focusCandidates
)

// linkModel is the link dialog. All state transitions go through flow.
type linkModel struct {
	flow       linkflow.Flow
	file       docapi.File
	focus      linkFocus
	catCursor  int
	candCursor int
	err        string // local validation message
}

type candidatesMsg struct {
	ticket     linkflow.Ticket
	candidates []docapi.Candidate
	err        error
}

type linkMsg struct {
	sub linkflow.Submission
	err error
}

func (l *linkModel) open(file docapi.File) {
	l.flow.Open(file.ID)
	l.file = file
	l.focus = focusCategory
	l.catCursor = 0
	l.candCursor = 0
	l.err = ""
}

func (m model) selectCategory(c docapi.Category) (tea.Model, tea.Cmd) {
	ticket, err := m.link.flow.SelectCategory(c)
	if err != nil {
		return m, nil
	}
	m.link.err = ""
	m.link.candCursor = 0
	docs, sess := m.env.docs, m.env.session
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		cands, err := docs.ListCandidates(context.Background(), ticket.Category, sess)
		return candidatesMsg{ticket: ticket, candidates: cands, err: err}
	})
}

func (m model) handleCandidates(msg candidatesMsg) (tea.Model, tea.Cmd) {
	if !m.link.flow.Apply(msg.ticket, msg.candidates, msg.err) {
		m.env.log.Debug("dropped stale candidates", zap.String("category", msg.ticket.Category.String()))
		return m, nil
	}
	if msg.err != nil {
		m.env.log.Warn("candidate fetch failed", zap.Error(msg.err))
	}
	m.link.candCursor = 0
	if m.link.flow.Phase() == linkflow.CandidatesLoaded {
		m.link.focus = focusCandidates
	}
	return m, nil
}

func (m model) submitLink() (tea.Model, tea.Cmd) {
	sub, err := m.link.flow.BeginSubmit()
	var ve *linkflow.ValidationError
	switch {
	case errors.As(err, &ve):
		m.link.err = ve.Error()
		return m, nil
	case err != nil:
		return m, nil
	}
	m.link.err = ""
	docs := m.env.docs
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		err := docs.LinkDocument(context.Background(), sub.DocumentID, sub.Category, sub.EntityID)
		return linkMsg{sub: sub, err: err}
	})
}

func (m model) handleLink(msg linkMsg) (tea.Model, tea.Cmd) {
	if !m.link.flow.Finish(msg.err) {
		m.env.log.Warn("link failed", zap.String("document", msg.sub.DocumentID), zap.Error(msg.err))
		return m, nil
	}
	m.notice = notice{noticeSuccess, fmt.Sprintf("Linked to %s.", strings.ToLower(msg.sub.Category.String()))}
	cmd := m.refresh()
	return m, cmd
}

func (m model) updateLink(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.link.flow
	switch k.String() {
	case "esc":
		f.Cancel()
		return m, nil
	case "c":
		m.link.catCursor = 0
		return m.selectCategory(docapi.CategoryContact)
	case "l":
		m.link.catCursor = 1
		return m.selectCategory(docapi.CategoryLead)
	case "s", "ctrl+s":
		return m.submitLink()
	case "tab", "shift+tab":
		if m.link.focus == focusCategory && f.Phase() == linkflow.CandidatesLoaded {
			m.link.focus = focusCandidates
		} else {
			m.link.focus = focusCategory
		}
		return m, nil
	}

	if m.link.focus == focusCategory {
		switch k.String() {
		case "left", "h", "up", "k":
			m.link.catCursor = (m.link.catCursor + len(linkCategories) - 1) % len(linkCategories)
		case "right", "down", "j":
			m.link.catCursor = (m.link.catCursor + 1) % len(linkCategories)
		case "enter", " ":
			return m.selectCategory(linkCategories[m.link.catCursor])
		}
		return m, nil
	}

	cands := f.Candidates()
	switch k.String() {
	case "up", "k":
		if m.link.candCursor > 0 {
			m.link.candCursor--
		}
	case "down", "j":
		if m.link.candCursor < len(cands)-1 {
			m.link.candCursor++
		}
	case " ":
		if m.link.candCursor < len(cands) {
			f.Choose(cands[m.link.candCursor].Value)
		}
	case "enter":
		if f.Chosen() == "" && m.link.candCursor < len(cands) {
			f.Choose(cands[m.link.candCursor].Value)
			return m, nil
		}
		return m.submitLink()
	}
	return m, nil
}

func (m model) viewLink() string {
	f := &m.link.flow
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n\n", headingStyle.Render("Link document"), valueStyle.Render(m.link.file.Name))

	var cats []string
	for i, c := range linkCategories {
		label := c.String()
		if c == f.Category() {
			label = "● " + label
		} else {
			label = "○ " + label
		}
		cats = append(cats, renderButton(label, m.link.focus == focusCategory && i == m.link.catCursor, false))
	}
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("Link to:"), strings.Join(cats, ""))

	switch f.Phase() {
	case linkflow.Closed:
		fmt.Fprintf(&b, "%s\n", subtitleStyle.Render("Choose Contact or Lead."))
	case linkflow.Fetching:
		fmt.Fprintf(&b, "%s %s\n", m.spin.View(), subtitleStyle.Render("Loading "+strings.ToLower(f.Category().String())+"s..."))
	case linkflow.NoData:
		fmt.Fprintf(&b, "%s\n", subtitleStyle.Render("No data available."))
	case linkflow.Failed:
		fmt.Fprintf(&b, "%s\n", errorStyle.Render(f.Message()))
	case linkflow.CandidatesLoaded, linkflow.Submitting:
		cands := f.Candidates()
		start, end := visibleWindow(m.link.candCursor, len(cands), 8)
		for i := start; i < end; i++ {
			c := cands[i]
			prefix := "  "
			if m.link.focus == focusCandidates && i == m.link.candCursor {
				prefix = cursorStyle.Render("▸ ")
			}
			mark := "○ "
			style := fileStyle
			if c.Value == f.Chosen() {
				mark = "● "
				style = accentStyle
			}
			fmt.Fprintf(&b, "%s%s\n", prefix, style.Render(mark+c.Label))
		}
		if f.Phase() == linkflow.Submitting {
			fmt.Fprintf(&b, "\n%s %s\n", m.spin.View(), subtitleStyle.Render("Linking..."))
		} else if msg := f.Message(); msg != "" {
			fmt.Fprintf(&b, "\n%s\n", errorStyle.Render(msg))
		}
	}

	if m.link.err != "" {
		fmt.Fprintf(&b, "\n%s\n", errorStyle.Render(m.link.err))
	}

	submit := renderButton("Submit", false, false)
	if f.CanSubmit() {
		submit = renderButton("Submit", true, false)
	}
	fmt.Fprintf(&b, "\n%s\n\n%s", submit,
		renderKeyHelp([]string{"c contact", "l lead", "tab focus", "space choose", "s submit", "esc cancel"}))
	return dialogStyle.Render(b.String())
}
