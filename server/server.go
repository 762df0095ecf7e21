// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/applyform/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// WithShutdownSignals returns a context that is canceled on SIGINT or
// SIGTERM. The returned cancel also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over HTTP, HTTPS with manual
// certificates, or HTTPS via Let's Encrypt http-01, and blocks until ctx is
// canceled or a server fails. In both HTTPS modes port 80 redirects to
// HTTPS (and answers ACME challenges under Let's Encrypt).
func ListenAndServeWithContext(
	ctx context.Context,
	cfg *config.CoreConfig,
	handler http.Handler,
	logger *zap.Logger,
) error {
	if cfg == nil {
		return errors.New("ListenAndServeWithContext: cfg is nil")
	}
	if handler == nil {
		return errors.New("ListenAndServeWithContext: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newServer(cfg, handler, logger)

	var (
		auxSrv   *http.Server
		ln       net.Listener
		serveErr = make(chan error, 1)
		auxErr   chan error // nil unless auxSrv runs; a nil channel never fires in select
		err      error
	)

	startAux := func(h http.Handler) {
		auxSrv = newServer(cfg, h, logger)
		auxSrv.Addr = ":80"
		auxErr = make(chan error, 1)
		go serveAuxiliary(auxSrv, auxErr)
	}

	switch {
	case !cfg.HTTP.UseHTTPS:
		ln, err = net.Listen("tcp", ":"+strconv.Itoa(cfg.HTTP.HTTPPort))
		if err != nil {
			return fmt.Errorf("listen http: %w", err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	case cfg.TLS.UseLetsEncrypt:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		startAux(m.HTTPHandler(httpRedirectHandler()))
		logger.Info("ACME + redirect server listening", zap.String("addr", auxSrv.Addr))

		if err := waitForCert(ctx, m, cfg.TLS.Domain, 60*time.Second); err != nil {
			logger.Warn("autocert pre-warm failed; first HTTPS hits may see TLS errors", zap.Error(err))
		}

		ln, err = listenTLS(cfg, &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate})
		if err != nil {
			_ = shutdownAux(context.Background(), auxSrv)
			return err
		}
		logger.Info("HTTPS server (Let's Encrypt) listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("domain", cfg.TLS.Domain))

	default:
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return errors.New("manual TLS selected but cert_file / key_file not provided")
		}
		if err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			if !errors.Is(err, errKeyPermissions) || cfg.Env == "prod" {
				return err
			}
			logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}

		startAux(httpRedirectHandler())
		logger.Info("HTTP → HTTPS redirect server listening", zap.String("addr", auxSrv.Addr))

		ln, err = listenTLS(cfg, &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}})
		if err != nil {
			_ = shutdownAux(context.Background(), auxSrv)
			return err
		}
		logger.Info("HTTPS server (manual TLS) listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("cert_file", cfg.TLS.CertFile))
	}

	go servePrimary(srv, ln, serveErr)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server…")
			// ctx is already done; the shutdown window is measured from now.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = shutdownAux(shutdownCtx, auxSrv)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			_ = shutdownAux(context.Background(), auxSrv)
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				_ = srv.Close()
				return fmt.Errorf("auxiliary server error: %w", err)
			}
			auxSrv, auxErr = nil, nil
		}
	}
}

func newServer(cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}
	return srv
}

func listenTLS(cfg *config.CoreConfig, tlsCfg *tls.Config) (net.Listener, error) {
	addr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen https %s: %w", addr, err)
	}
	return tls.NewListener(ln, tlsCfg), nil
}

func servePrimary(srv *http.Server, ln net.Listener, ch chan<- error) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		ch <- err
		return
	}
	ch <- nil
}

func serveAuxiliary(auxSrv *http.Server, ch chan<- error) {
	if err := auxSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		ch <- err
		return
	}
	ch <- nil
}

func shutdownAux(ctx context.Context, auxSrv *http.Server) error {
	if auxSrv == nil {
		return nil
	}
	return auxSrv.Shutdown(ctx)
}

// httpRedirectHandler redirects to HTTPS preserving host and path. Hosts and
// request targets with control characters are rejected.
func httpRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqURI := r.URL.RequestURI()
		if !isValidHost(r.Host) || !isValidRequestURI(reqURI) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+reqURI, http.StatusMovedPermanently)
	})
}

func isValidRequestURI(uri string) bool {
	for _, c := range uri {
		if (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}
	return true
}

func isValidHost(host string) bool {
	if host == "" || strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}

	hostPart, portStr, err := net.SplitHostPort(host)
	if err != nil {
		hostPart = host
	} else if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return false
		}
	}
	if hostPart == "" {
		return false
	}

	if strings.HasPrefix(hostPart, "[") && strings.HasSuffix(hostPart, "]") {
		ip := hostPart[1 : len(hostPart)-1]
		if i := strings.Index(ip, "%"); i != -1 {
			ip = ip[:i]
		}
		if net.ParseIP(ip) == nil {
			return false
		}
	}

	for _, c := range hostPart {
		if c < 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}

var errKeyPermissions = errors.New("TLS key file has overly permissive permissions")

// validateTLSFiles checks the certificate and key exist and that the key is
// not readable by group or others (Unix only). A permissions problem wraps
// errKeyPermissions so callers can downgrade it to a warning outside prod.
func validateTLSFiles(certFile, keyFile string) error {
	for _, f := range []struct{ kind, path string }{{"certificate", certFile}, {"key", keyFile}} {
		info, err := os.Stat(f.path)
		if err != nil {
			return fmt.Errorf("TLS %s file %s: %w", f.kind, f.path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("TLS %s path is a directory, not a file: %s", f.kind, f.path)
		}
		if f.kind == "key" && runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
			return fmt.Errorf("%w: %s is %o (recommended: 0600)", errKeyPermissions, f.path, info.Mode().Perm())
		}
	}
	return nil
}

// waitForCert blocks until autocert holds a certificate for host, the
// timeout passes or ctx ends.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for cert for %q: %w", host, err)
		case <-time.After(time.Second):
		}
	}
}
