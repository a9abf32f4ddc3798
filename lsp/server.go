// Package lsp implements a language server that checks documents against a
// grammar description and publishes the parse diagnostics.
package lsp

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/pegmatch/internal/metrics"
	peg "github.com/dhamidi/pegmatch/peg/grammar"
	"github.com/dhamidi/pegmatch/peg/load"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "pegmatch"

const (
	defaultCacheSize = 256
	defaultDebounce  = 100 * time.Millisecond
)

type loaded struct {
	grammar    *peg.Grammar
	generation uint64
}

type cacheKey struct {
	generation uint64
	sum        uint64
}

// Server checks open documents against the grammar at grammarPath.
type Server struct {
	grammarPath string
	start       string
	version     string
	debounce    time.Duration
	cacheSize   int

	current atomic.Pointer[loaded]
	cache   *lru.Cache[cacheKey, []protocol.Diagnostic]
	metrics *metrics.Collector
	log     commonlog.Logger

	mu      sync.Mutex
	docs    map[protocol.DocumentUri]string
	notify  glsp.NotifyFunc
	watcher *GrammarWatcher

	handler protocol.Handler
	server  *server.Server
}

// Option configures a Server.
type Option func(*Server)

// WithStartRule checks documents against the named rule instead of the
// description's start rule.
func WithStartRule(name string) Option {
	return func(s *Server) {
		s.start = name
	}
}

// WithMetrics records parses, reloads and cache lookups into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithCacheSize sets how many diagnostic results are kept.
func WithCacheSize(n int) Option {
	return func(s *Server) {
		s.cacheSize = n
	}
}

// WithVersion sets the version reported to clients.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithDebounce sets how long grammar file events are collected before the
// grammar is reloaded.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) {
		s.debounce = d
	}
}

// New loads the grammar at grammarPath and creates a server for it.
func New(grammarPath string, opts ...Option) (*Server, error) {
	s := &Server{
		grammarPath: filepath.Clean(grammarPath),
		version:     "dev",
		debounce:    defaultDebounce,
		cacheSize:   defaultCacheSize,
		log:         commonlog.GetLogger("pegmatch.lsp"),
		docs:        make(map[protocol.DocumentUri]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	cache, err := lru.New[cacheKey, []protocol.Diagnostic](s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create diagnostic cache: %w", err)
	}
	s.cache = cache

	g, err := load.Grammar(s.grammarPath, s.start)
	if err != nil {
		return nil, err
	}
	s.current.Store(&loaded{grammar: g, generation: 1})

	s.handler = protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
		TextDocumentDidSave:   s.textDocumentDidSave,
	}

	s.server = server.NewServer(&s.handler, lsName, false)

	return s, nil
}

func (s *Server) RunStdio() error {
	defer s.Close()
	return s.server.RunStdio()
}

// Grammar returns the grammar documents are currently checked against.
func (s *Server) Grammar() *peg.Grammar {
	return s.current.Load().grammar
}

// Reload reads the grammar file again. On failure the previous grammar
// stays in use. On success every open document is checked again.
func (s *Server) Reload() error {
	g, err := load.Grammar(s.grammarPath, s.start)
	s.metrics.ObserveReload(err)
	if err != nil {
		s.log.Errorf("reload %s: %s", s.grammarPath, err)
		return err
	}

	prev := s.current.Load()
	s.current.Store(&loaded{grammar: g, generation: prev.generation + 1})
	s.log.Infof("reloaded %s", s.grammarPath)

	s.mu.Lock()
	docs := make(map[protocol.DocumentUri]string, len(s.docs))
	for uri, text := range s.docs {
		docs[uri] = text
	}
	s.mu.Unlock()

	for uri, text := range docs {
		s.publish(uri, text)
	}
	return nil
}

// Watch reloads the grammar whenever its file changes.
func (s *Server) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w, err := NewGrammarWatcher(s.grammarPath, s.debounce, func() {
		s.Reload()
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	s.watcher = w
	return nil
}

// Close stops watching the grammar file.
func (s *Server) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Stop()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.setNotify(ctx)
	if err := s.Watch(); err != nil {
		s.log.Errorf("watch %s: %s", s.grammarPath, err)
	}
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return s.Close()
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.setNotify(ctx)
	s.update(params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.setNotify(ctx)
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.update(params.TextDocument.URI, textChange.Text)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.setNotify(ctx)
	s.mu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()
	s.send(params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.setNotify(ctx)
	if params.Text != nil {
		s.update(params.TextDocument.URI, *params.Text)
	}
	return nil
}

func (s *Server) setNotify(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	s.mu.Lock()
	s.notify = ctx.Notify
	s.mu.Unlock()
}

func (s *Server) update(uri protocol.DocumentUri, text string) {
	s.mu.Lock()
	s.docs[uri] = text
	s.mu.Unlock()
	s.publish(uri, text)
}

func (s *Server) publish(uri protocol.DocumentUri, text string) {
	s.send(uri, s.Diagnose(text))
}

func (s *Server) send(uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()
	if notify == nil {
		return
	}

	notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// Diagnose parses text with the current grammar. The result is empty when
// text matches.
func (s *Server) Diagnose(text string) []protocol.Diagnostic {
	cur := s.current.Load()
	key := cacheKey{generation: cur.generation, sum: xxhash.Sum64String(text)}
	if diagnostics, ok := s.cache.Get(key); ok {
		s.metrics.ObserveCache(true)
		return diagnostics
	}
	s.metrics.ObserveCache(false)

	res, err := s.metrics.Parse(cur.grammar, text)
	diagnostics := toDiagnostics(text, res, err)
	s.cache.Add(key, diagnostics)
	return diagnostics
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
