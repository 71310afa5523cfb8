package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"docexplorer/internal/config"
	"docexplorer/internal/docapi"
	"docexplorer/internal/download"
	"docexplorer/internal/logging"
	"docexplorer/internal/metrics"
	"docexplorer/internal/platform"
	"docexplorer/internal/session"
)

type appState int

const (
	stateLoading appState = iota
	stateExplorer
	stateUpload
	stateBrowser
	stateHistory
	stateHelp
)

// documentService is the subset of the document API the screens use.
type documentService interface {
	FetchDirectory(ctx context.Context) ([]docapi.Folder, error)
	DeleteDocument(ctx context.Context, fileID string) (string, error)
	UploadDocument(ctx context.Context, u docapi.Upload) (string, error)
	ListCandidates(ctx context.Context, category docapi.Category, s session.Session) ([]docapi.Candidate, error)
	LinkDocument(ctx context.Context, documentID string, category docapi.Category, entityID string) error
}

type downloader interface {
	Fetch(ctx context.Context, req download.Request, progress func(download.Progress)) (download.Result, error)
	History(limit int) ([]download.Record, error)
	Dir() string
}

// env holds the collaborators shared by every screen.
type env struct {
	docs      documentService
	downloads downloader
	opener    platform.Opener
	storage   platform.StoragePermission
	clipboard platform.Clipboard
	session   session.Session
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
	// send relays progress from running commands; nil until the program starts.
	send func(tea.Msg)
}

type helpModel struct {
	previousState appState
}

type model struct {
	state      appState
	env        *env
	explorer   explorerModel
	link       linkModel
	upload     uploadModel
	browser    browserModel
	history    historyModel
	help       helpModel
	keyHelp    help.Model
	spin       spinner.Model
	notice     notice
	windowSize tea.WindowSizeMsg
}

func main() {
	if err := run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load("")

	if err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     "json",
		OutputPath: cfg.LogPath,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Sync()
	log := logging.L()

	sess, err := session.Resolve(cfg.UserID, cfg.Role, cfg.Token)
	if err == nil && !sess.Valid() {
		err = session.ErrNoIdentity
	}
	if err != nil {
		return fmt.Errorf("resolve session: %w (set user_id in %s or DOCEXPLORER_USER_ID)", err, config.Path())
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	docs := docapi.New(docapi.Config{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		AuthToken: cfg.Token,
		Logger:    log.Named("docapi"),
		Metrics:   m,
	})

	var ledger *download.Ledger
	if cfg.LedgerPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LedgerPath), 0o755); err == nil {
			ledger, err = download.OpenLedger(cfg.LedgerPath)
			if err != nil {
				log.Warn("download history disabled", zap.Error(err))
			}
		}
	}
	if ledger != nil {
		defer ledger.Close()
	}

	dl := download.New(download.Config{
		Dir: cfg.DownloadDir,
		// Same transport as the API client, without its whole-request timeout.
		HTTPClient: &http.Client{Transport: docs.HTTPClient().Transport},
		Ledger:     ledger,
		Logger:     log.Named("download"),
		Metrics:    m,
	})

	e := &env{
		docs:      docs,
		downloads: dl,
		opener:    platform.BrowserOpener{},
		storage:   platform.DirPermission{},
		clipboard: platform.SystemClipboard{},
		session:   sess,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}

	log.Info("starting explorer",
		zap.String("base_url", cfg.BaseURL),
		zap.String("user_id", sess.UserID),
		zap.String("role", sess.Role),
	)

	p := tea.NewProgram(newModel(e), tea.WithAltScreen())
	e.send = p.Send
	_, err = p.Run()
	return err
}

func newModel(e *env) model {
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := model{
		state:   stateLoading,
		env:     e,
		upload:  newUploadModel(e.cfg),
		keyHelp: help.New(),
		spin:    s,
	}
	m.explorer.loading = true
	m.explorer.fetchSeq = 1
	return m
}

// INIT
func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchDirectory(m.explorer.fetchSeq))
}

// UPDATE
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowSize = msg
		m.keyHelp.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case directoryMsg:
		return m.handleDirectory(msg)
	case deleteMsg:
		return m.handleDelete(msg)
	case openMsg:
		return m.handleOpen(msg)
	case copyMsg:
		return m.handleCopy(msg)
	case downloadProgressMsg:
		return m.handleDownloadProgress(msg)
	case downloadDoneMsg:
		return m.handleDownloadDone(msg)
	case candidatesMsg:
		return m.handleCandidates(msg)
	case linkMsg:
		return m.handleLink(msg)
	case uploadMsg:
		return m.handleUpload(msg)
	case historyMsg:
		return m.handleHistory(msg)
	}

	switch m.state {
	case stateLoading:
		return m.updateLoading(msg)
	case stateExplorer:
		return m.updateExplorer(msg)
	case stateUpload:
		return m.updateUpload(msg)
	case stateBrowser:
		return m.updateBrowser(msg)
	case stateHistory:
		return m.updateHistory(msg)
	case stateHelp:
		return m.updateHelp(msg)
	default:
		return m, nil
	}
}

func (m model) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "q" || k.String() == "ctrl+c") {
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updateHelp(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		// Any key exits help and returns to previous state
		m.state = m.help.previousState
	}
	return m, nil
}

func (m model) showHelp() (tea.Model, tea.Cmd) {
	m.help.previousState = m.state
	m.state = stateHelp
	return m, nil
}

// VIEW
func (m model) View() string {
	switch m.state {
	case stateLoading:
		return m.viewLoading()
	case stateExplorer:
		return m.viewExplorer()
	case stateUpload:
		return m.viewUpload()
	case stateBrowser:
		return m.viewBrowser()
	case stateHistory:
		return m.viewHistory()
	case stateHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

func (m model) viewLoading() string {
	return fmt.Sprintf("\n  %s %s\n\n  %s\n",
		m.spin.View(),
		valueStyle.Render("Loading documents..."),
		subtitleStyle.Render(m.env.cfg.BaseURL))
}

// Responsive layout helpers
func (m model) getWidth() int {
	if m.windowSize.Width > 0 {
		return m.windowSize.Width
	}
	return 80 // Default width
}

func (m model) getHeight() int {
	if m.windowSize.Height > 0 {
		return m.windowSize.Height
	}
	return 24 // Default height
}

func (m model) getListDisplayLines() int {
	height := m.getHeight()
	if height < 20 {
		return 8
	} else if height < 30 {
		return 15
	}
	return 20
}

// visibleWindow returns the [start,end) slice of n items keeping selected in view.
func visibleWindow(selected, n, max int) (int, int) {
	start := 0
	if selected >= max {
		start = selected - max + 1
	}
	end := start + max
	if end > n {
		end = n
	}
	return start, end
}
