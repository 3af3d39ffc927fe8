package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abiiranathan/rex"
	"github.com/go-playground/validator/v10"

	markup "github.com/abiiranathan/go-markup"
	"github.com/abiiranathan/go-markup/diag"
	"github.com/abiiranathan/go-markup/evaluator"
)

const (
	maxRequestBody = 1 << 20
	maxOutput      = 1 << 20

	// defaultMaxIterations bounds loops in submitted templates when the
	// config sets no limit.
	defaultMaxIterations = 10000
)

var errOutputTooLarge = errors.New("rendered output exceeds 1 MiB")

func cmdServe(args []string, stderr io.Writer) int {
	fs, cfgPath := newFlagSet("serve", stderr)
	addr := fs.String("addr", "", "listen address (default :8080 or the config addr)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fail(stderr, err)
	}
	listen := cmp.Or(*addr, cfg.Addr, ":8080")

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	srv := &http.Server{
		Addr:              listen,
		Handler:           newPlayground(cfg, logger).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("playground listening", "addr", listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "err", err)
		return 1
	}
	logger.Info("playground stopped")
	return 0
}

// playground serves an editor page and a JSON API over the compiler.
type playground struct {
	cfg    Config
	ev     *evaluator.Evaluator
	logger *slog.Logger
	page   *markup.Template
}

func newPlayground(cfg Config, logger *slog.Logger) *playground {
	cfg.MaxIterations = cmp.Or(cfg.MaxIterations, defaultMaxIterations)
	return &playground{
		cfg:    cfg,
		ev:     evaluator.New(),
		logger: logger,
		page:   markup.MustCompile(playgroundPage),
	}
}

func (p *playground) routes() *rex.Router {
	r := rex.NewRouter()
	r.GET("/", p.logged(p.index))
	r.POST("/compile", p.logged(p.compile))
	r.POST("/render", p.logged(p.render))
	return r
}

// logged logs each request with its duration.
func (p *playground) logged(h rex.HandlerFunc) rex.HandlerFunc {
	return func(c *rex.Context) error {
		start := time.Now()
		err := h(c)
		attrs := []any{"method", c.Request.Method, "path", c.Request.URL.Path, "duration", time.Since(start)}
		if err != nil {
			p.logger.Error("request failed", append(attrs, "err", err)...)
			return err
		}
		p.logger.Info("request", attrs...)
		return nil
	}
}

// compileRequest is the body of POST /compile and POST /render.
type compileRequest struct {
	Source     string         `json:"source" validate:"required,max=65536"`
	Vars       map[string]any `json:"vars"`
	Whitespace string         `json:"whitespace" validate:"omitempty,oneof=preserve collapse"`
}

// Diagnostic is a compile failure as reported to the browser.
type Diagnostic struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Snippet string `json:"snippet"`
}

type compileResponse struct {
	OK         bool        `json:"ok"`
	Program    string      `json:"program,omitempty"`
	HTML       string      `json:"html,omitempty"`
	Error      string      `json:"error,omitempty"`
	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
}

func (p *playground) index(c *rex.Context) error {
	c.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
	return p.page.Execute(c.Response, map[string]any{
		"title":  "markup playground",
		"sample": "ul {\n  @for x in items {\n    li.item[x > 1] { (x) }\n  }\n}",
		"vars":   `{"items": [1, 2, 3]}`,
		"script": playgroundScript,
	})
}

func (p *playground) compile(c *rex.Context) error {
	req, ok := p.decode(c)
	if !ok {
		return nil
	}
	tpl, resp := p.build(req)
	if tpl != nil {
		resp.Program = tpl.Program().String()
	}
	return writeJSON(c.Response, http.StatusOK, resp)
}

func (p *playground) render(c *rex.Context) error {
	req, ok := p.decode(c)
	if !ok {
		return nil
	}
	tpl, resp := p.build(req)
	if tpl != nil {
		out := &cappedWriter{ctx: c.Request.Context(), limit: maxOutput}
		if err := tpl.Execute(out, req.Vars); err != nil {
			resp.OK = false
			resp.Error = err.Error()
		} else {
			resp.HTML = out.buf.String()
		}
	}
	return writeJSON(c.Response, http.StatusOK, resp)
}

// cappedWriter buffers rendered output, failing once it grows past limit
// or the request is gone.
type cappedWriter struct {
	ctx   context.Context
	buf   strings.Builder
	limit int
}

func (w *cappedWriter) Write(b []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	if w.buf.Len()+len(b) > w.limit {
		return 0, errOutputTooLarge
	}
	return w.buf.Write(b)
}

// decode reads and validates the request body, answering 400 on failure.
func (p *playground) decode(c *rex.Context) (compileRequest, bool) {
	var req compileRequest
	body := http.MaxBytesReader(c.Response, c.Request.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		_ = writeJSON(c.Response, http.StatusBadRequest, compileResponse{Error: "invalid JSON body: " + err.Error()})
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		msg := err.Error()
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = "invalid field " + verrs[0].Field() + ": " + verrs[0].Tag()
		}
		_ = writeJSON(c.Response, http.StatusBadRequest, compileResponse{Error: msg})
		return req, false
	}
	return req, true
}

func (p *playground) build(req compileRequest) (*markup.Template, compileResponse) {
	cfg := p.cfg
	if req.Whitespace != "" {
		cfg.Whitespace = req.Whitespace
	}
	tpl, err := cfg.Options("playground", p.ev).Compile(req.Source)
	if err != nil {
		return nil, compileResponse{Error: err.Error(), Diagnostic: toDiagnostic(err, req.Source)}
	}
	return tpl, compileResponse{OK: true}
}

func toDiagnostic(err error, src string) *Diagnostic {
	d := &Diagnostic{Kind: "Error", Message: err.Error(), Snippet: formatError(err, "", src)}
	var xe *evaluator.ExprError
	if de, ok := diag.As(err); ok {
		d.Kind, d.Message, d.Hint = de.Kind.String(), de.Msg, de.Hint
		d.Line, d.Column = de.Span.Start.Line, de.Span.Start.Column
	} else if errors.As(err, &xe) {
		d.Kind, d.Message = "ExpressionError", xe.Msg
		d.Line, d.Column = xe.Span.Start.Line, xe.Span.Start.Column
	}
	return d
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

const playgroundPage = `!"<!DOCTYPE html>"
html lang="en" {
	head {
		meta charset="utf-8";
		title { (title) }
		style { "textarea { width: 100%; font-family: monospace; } pre.err { color: #b00; }" }
	}
	body {
		h1 { (title) }
		textarea#src rows="12" { (sample) }
		textarea#vars rows="4" { (vars) }
		p {
			button#render type="button" { "Render" }
			" "
			button#compile type="button" { "Show program" }
		}
		pre#out { }
		script { !(script) }
	}
}`

const playgroundScript = `
async function post(path) {
  const body = {source: document.getElementById("src").value};
  try { body.vars = JSON.parse(document.getElementById("vars").value || "{}"); } catch (e) {}
  const res = await fetch(path, {method: "POST", body: JSON.stringify(body)});
  const data = await res.json();
  const out = document.getElementById("out");
  out.className = data.ok ? "" : "err";
  out.textContent = data.ok ? (data.html || data.program) : ((data.diagnostic && data.diagnostic.snippet) || data.error);
}
document.getElementById("render").onclick = () => post("/render");
document.getElementById("compile").onclick = () => post("/compile");
`
