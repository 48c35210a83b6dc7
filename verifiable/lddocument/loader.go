/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lddocument

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/piprate/json-gold/ld"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	ldcontext "github.com/trustbloc/did-go/doc/ld/context"
	"github.com/trustbloc/did-go/doc/ld/documentloader"
	"github.com/trustbloc/did-go/doc/ld/store"
	"github.com/trustbloc/did-go/legacy/mem"

	"github.com/trustbloc/vc-offline-verifier/internal/logging"
)

// ErrOfflineDependenciesMissing is returned when a context or key document is neither cached nor fetchable.
var ErrOfflineDependenciesMissing = errors.New("required verification data not available offline")

const defaultOnlineCacheBytes = 32 << 20

// DocumentLoader serves cached JSON-LD contexts. Documents are looked up in the preloaded map,
// then in the embedded core contexts and, when enabled, online.
type DocumentLoader struct {
	mu       sync.RWMutex
	contexts map[string]*ld.RemoteDocument

	embedded ld.DocumentLoader
	online   ld.DocumentLoader
	cache    *fastcache.Cache
	logger   logrus.FieldLogger
}

// LoaderOpt configures DocumentLoader.
type LoaderOpt func(l *DocumentLoader)

// WithContexts preloads context documents.
func WithContexts(docs ...ldcontext.Document) LoaderOpt {
	return func(l *DocumentLoader) {
		for _, d := range docs {
			if err := l.AddContext(d.URL, d.Content); err != nil {
				l.logger.WithError(err).WithField("url", d.URL).Warn("skip invalid context")
			}
		}
	}
}

// WithEmbeddedLoader replaces the loader of the embedded core contexts.
func WithEmbeddedLoader(loader ld.DocumentLoader) LoaderOpt {
	return func(l *DocumentLoader) {
		l.embedded = loader
	}
}

// WithOnlineFallback enables fetching contexts that are not cached. Fetched documents are kept in a
// byte cache of cacheBytes.
func WithOnlineFallback(client *http.Client, cacheBytes int) LoaderOpt {
	return func(l *DocumentLoader) {
		if cacheBytes <= 0 {
			cacheBytes = defaultOnlineCacheBytes
		}

		l.online = ld.NewDefaultDocumentLoader(client)
		l.cache = fastcache.New(cacheBytes)
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger logrus.FieldLogger) LoaderOpt {
	return func(l *DocumentLoader) {
		l.logger = logger
	}
}

// NewDocumentLoader creates DocumentLoader. Without WithEmbeddedLoader the core W3C contexts bundled
// with did-go are served from an in-memory context store.
func NewDocumentLoader(opts ...LoaderOpt) (*DocumentLoader, error) {
	l := &DocumentLoader{
		contexts: map[string]*ld.RemoteDocument{},
		logger:   logging.Entry(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.embedded == nil {
		provider, err := newMemoryProvider()
		if err != nil {
			return nil, fmt.Errorf("create context store: %w", err)
		}

		embedded, err := documentloader.NewDocumentLoader(provider)
		if err != nil {
			return nil, fmt.Errorf("create embedded context loader: %w", err)
		}

		l.embedded = embedded
	}

	return l, nil
}

// AddContext stores a context document under url.
func (l *DocumentLoader) AddContext(url string, content []byte) error {
	doc, err := ld.DocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("parse context %s: %w", url, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.contexts[url] = &ld.RemoteDocument{DocumentURL: url, Document: doc}

	return nil
}

// LoadContextsDir stores every *.json and *.jsonld file of dir. A file holds {"url": ..., "document": {...}}.
func (l *DocumentLoader) LoadContextsDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read contexts dir: %w", err)
	}

	files := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		ext := strings.ToLower(filepath.Ext(e.Name()))

		return !e.IsDir() && (ext == ".json" || ext == ".jsonld")
	})

	for _, f := range files {
		content, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return 0, fmt.Errorf("read context file %s: %w", f.Name(), err)
		}

		var entry struct {
			URL      string          `json:"url"`
			Document json.RawMessage `json:"document"`
		}

		if err = json.Unmarshal(content, &entry); err != nil || entry.URL == "" || len(entry.Document) == 0 {
			return 0, fmt.Errorf("context file %s: expected url and document", f.Name())
		}

		if err = l.AddContext(entry.URL, entry.Document); err != nil {
			return 0, err
		}
	}

	return len(files), nil
}

// LoadDocument implements ld.DocumentLoader.
func (l *DocumentLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	l.mu.RLock()
	doc, ok := l.contexts[u]
	l.mu.RUnlock()

	if ok {
		return doc, nil
	}

	if doc, err := l.embedded.LoadDocument(u); err == nil {
		return doc, nil
	}

	if l.online == nil {
		return nil, fmt.Errorf("%w: %s", ErrOfflineDependenciesMissing, u)
	}

	return l.loadOnline(u)
}

func (l *DocumentLoader) loadOnline(u string) (*ld.RemoteDocument, error) {
	if cached := l.cache.GetBig(nil, []byte(u)); len(cached) > 0 {
		doc, err := ld.DocumentFromReader(bytes.NewReader(cached))
		if err == nil {
			return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
		}
	}

	l.logger.WithField("url", u).Debug("fetch context")

	doc, err := l.online.LoadDocument(u)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOfflineDependenciesMissing, u, err)
	}

	if raw, err := json.Marshal(doc.Document); err == nil {
		l.cache.SetBig([]byte(u), raw)
	}

	return doc, nil
}

// ForAttempt returns a loader that serves docs on top of l and records the documents it could not load.
func (l *DocumentLoader) ForAttempt(docs ...*VerificationDocuments) *AttemptLoader {
	a := &AttemptLoader{
		parent: l,
		docs:   map[string]map[string]interface{}{},
	}

	for _, d := range docs {
		if d == nil {
			continue
		}

		a.docs[d.VerificationMethodID] = d.VerificationMethod
		a.docs[d.ControllerID] = mergeController(a.docs[d.ControllerID], d.Controller)
	}

	return a
}

// mergeController joins the verification relationships of controller documents sharing an id.
func mergeController(existing, controller map[string]interface{}) map[string]interface{} {
	if existing == nil {
		return controller
	}

	merged := make(map[string]interface{}, len(controller))

	for k, v := range controller {
		merged[k] = v
	}

	for _, rel := range []string{"authentication", "assertionMethod"} {
		prev, _ := existing[rel].([]interface{})
		cur, _ := controller[rel].([]interface{})
		merged[rel] = lo.Uniq(append(append([]interface{}{}, prev...), cur...))
	}

	return merged
}

// AttemptLoader is the ld.DocumentLoader of a single verification attempt.
type AttemptLoader struct {
	parent ld.DocumentLoader
	docs   map[string]map[string]interface{}

	mu     sync.Mutex
	misses []string
}

// LoadDocument implements ld.DocumentLoader.
func (a *AttemptLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	if doc, ok := a.docs[u]; ok {
		return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
	}

	doc, err := a.parent.LoadDocument(u)
	if err != nil {
		if errors.Is(err, ErrOfflineDependenciesMissing) {
			a.mu.Lock()
			a.misses = append(a.misses, u)
			a.mu.Unlock()
		}

		return nil, err
	}

	return doc, nil
}

// Misses returns the URLs that were not available.
func (a *AttemptLoader) Misses() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return lo.Uniq(a.misses)
}

type memoryProvider struct {
	contextStore        store.ContextStore
	remoteProviderStore store.RemoteProviderStore
}

// newMemoryProvider backs the JSON-LD context stores with in-memory storage.
func newMemoryProvider() (*memoryProvider, error) {
	storageProvider := mem.NewProvider()

	contextStore, err := store.NewContextStore(storageProvider)
	if err != nil {
		return nil, err
	}

	remoteProviderStore, err := store.NewRemoteProviderStore(storageProvider)
	if err != nil {
		return nil, err
	}

	return &memoryProvider{
		contextStore:        contextStore,
		remoteProviderStore: remoteProviderStore,
	}, nil
}

func (p *memoryProvider) JSONLDContextStore() store.ContextStore {
	return p.contextStore
}

func (p *memoryProvider) JSONLDRemoteProviderStore() store.RemoteProviderStore {
	return p.remoteProviderStore
}
