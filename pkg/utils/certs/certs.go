// Package certs provides the TLS configuration of the HTTP server. The
// certificate is reloaded when the watched files change.
package certs

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/f1data/telemetry-service/log"
)

type (
	Option   func(*Provider)
	Provider struct {
		certFile      string
		keyFile       string
		caFile        string
		acmeFile      string
		acmeDomain    string
		log           *log.Logger
		mu            sync.RWMutex
		cert          *tls.Certificate
		watchedEvents chan struct{}
	}
)

var ErrNoCertificate = errors.New("no certificate configured")

// WithKeyPair loads the certificate from PEM encoded cert and key files.
func WithKeyPair(certFile, keyFile string) Option {
	return func(p *Provider) {
		p.certFile = certFile
		p.keyFile = keyFile
	}
}

// WithACMEStore loads the certificate of domain from a traefik acme.json store.
// It takes precedence over WithKeyPair.
func WithACMEStore(file, domain string) Option {
	return func(p *Provider) {
		p.acmeFile = file
		p.acmeDomain = domain
	}
}

// WithClientCA enables verification of client certificates signed by the CA.
func WithClientCA(file string) Option {
	return func(p *Provider) {
		p.caFile = file
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Provider) {
		p.log = l
	}
}

func NewProvider(opts ...Option) *Provider {
	p := &Provider{log: log.Default().Named("certs")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether a certificate source is configured.
func (p *Provider) Enabled() bool {
	return (p.acmeFile != "" && p.acmeDomain != "") || (p.certFile != "" && p.keyFile != "")
}

// TLSConfig loads the certificate and starts watching the configured files
// until ctx is done.
func (p *Provider) TLSConfig(ctx context.Context) (*tls.Config, error) {
	if !p.Enabled() {
		return nil, ErrNoCertificate
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	cfg := &tls.Config{
		GetCertificate: p.getCertificate,
		MinVersion:     tls.VersionTLS13,
	}
	if p.caFile != "" {
		p.log.Info("Loading ca cert", log.String("file", p.caFile))
		caCert, err := os.ReadFile(p.caFile)
		if err != nil {
			return nil, fmt.Errorf("read client CA: %w", err)
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caCert); !ok {
			return nil, fmt.Errorf("no certificates in %s", p.caFile)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.VerifyClientCertIfGiven
	}
	if err := p.watch(ctx); err != nil {
		p.log.Warn("certificate changes will not be detected", log.ErrorField(err))
	}
	return cfg, nil
}

func (p *Provider) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cert, nil
}

func (p *Provider) load() error {
	var (
		cert tls.Certificate
		err  error
	)
	if p.acmeFile != "" && p.acmeDomain != "" {
		p.log.Info("Looking up acme certs",
			log.String("file", p.acmeFile),
			log.String("domain", p.acmeDomain))
		cert, err = CertFromACMEStore(p.acmeFile, p.acmeDomain)
	} else {
		p.log.Info("Loading cert",
			log.String("key", p.keyFile),
			log.String("cert", p.certFile))
		cert, err = tls.LoadX509KeyPair(p.certFile, p.keyFile)
	}
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cert = &cert
	return nil
}

func (p *Provider) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, f := range []string{p.certFile, p.keyFile, p.acmeFile} {
		if f == "" {
			continue
		}
		if err := watcher.Add(f); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", f, err)
		}
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				p.log.Debug("context done, stopping cert reload")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Chmod) &&
					!event.Has(fsnotify.Create) {
					continue
				}
				p.log.Info("cert file changed, reloading cert", log.String("file", event.Name))
				if err := p.load(); err != nil {
					// keep serving the previous certificate
					p.log.Error("could not reload certificate", log.ErrorField(err))
				}
				if p.watchedEvents != nil {
					select {
					case p.watchedEvents <- struct{}{}:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.log.Error("watcher error", log.ErrorField(err))
			}
		}
	}()
	return nil
}
