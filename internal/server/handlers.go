package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/tidyqa-cli/internal/analysis"
	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/ingest"
	"github.com/KaramelBytes/tidyqa-cli/internal/preprocess"
	"github.com/KaramelBytes/tidyqa-cli/internal/qa"
	"github.com/KaramelBytes/tidyqa-cli/internal/session"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

const defaultPreviewRows = 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	out := []session.Info{}
	for _, sess := range s.store.List() {
		out = append(out, sess.Info())
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateSession accepts a multipart upload in field "file". An optional
// "sheet" field picks an XLSX worksheet.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.KindInvalidInput, err, "parse upload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, apperr.InvalidInput("missing form file %q", "file"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.KindInvalidInput, err, "read upload"))
		return
	}

	raw, err := ingest.ReadAnyWith(data, header.Filename, ingest.Options{Sheet: r.FormValue("sheet")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.store.Create(header.Filename, raw, s.cfg.Cleaning)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Info())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		writeJSON(w, http.StatusOK, sess.Info())
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClean re-runs cleaning from the raw upload. Fields missing from the
// body keep the session's current settings.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	cfg := sess.Cleaning
	if err := decodeBody(r, &cfg); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.store.Reclean(sess.ID, cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	n, err := intParam(r, "rows", defaultPreviewRows)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t := sess.Clean
	if r.URL.Query().Get("raw") == "true" {
		t = sess.Raw
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":    t.NumRows(),
		"columns": t.NumCols(),
		"preview": t.Head(n),
	})
}

type preprocessRequest struct {
	preprocess.Config
	Split    bool    `json:"split"`
	TestSize float64 `json:"test_size"`
	Seed     *int64  `json:"seed"`
	Rows     int     `json:"rows"`
}

type shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

type preprocessResponse struct {
	Rows        int              `json:"rows"`
	Columns     []string         `json:"columns"`
	Encoder     string           `json:"encoder,omitempty"`
	EncodedCols []string         `json:"encoded_columns,omitempty"`
	Scaler      string           `json:"scaler,omitempty"`
	ScaledCols  []string         `json:"scaled_columns,omitempty"`
	Preview     *table.Table     `json:"preview"`
	Split       map[string]shape `json:"split,omitempty"`
}

// handlePreprocess encodes and scales a copy of the cleaned table. The
// session keeps the cleaned table unchanged.
func (s *Server) handlePreprocess(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	req := preprocessRequest{Config: s.cfg.Preprocessing, TestSize: preprocess.DefaultTestSize, Rows: defaultPreviewRows}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Config.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	out := sess.Clean
	resp := preprocessResponse{}
	if req.Encode {
		t, enc, err := preprocess.Encode(out, req.Encoder, req.Target)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = t
		if enc != nil {
			resp.Encoder, resp.EncodedCols = string(enc.Kind()), enc.Columns()
		}
	}
	if req.Scale {
		t, sc, err := preprocess.Scale(out, req.Scaler)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = t
		if sc != nil {
			resp.Scaler, resp.ScaledCols = string(sc.Kind()), sc.Columns()
		}
	}
	if req.Split {
		seed := int64(preprocess.DefaultSeed)
		if req.Seed != nil {
			seed = *req.Seed
		}
		sp, err := preprocess.TrainTestSplit(out, req.Target, req.TestSize, seed)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Split = map[string]shape{
			"train": {Rows: sp.Train.NumRows(), Columns: sp.Train.NumCols()},
			"test":  {Rows: sp.Test.NumRows(), Columns: sp.Test.NumCols()},
		}
	}
	resp.Rows = out.NumRows()
	resp.Columns = out.Names()
	resp.Preview = out.Head(req.Rows)
	writeJSON(w, http.StatusOK, resp)
}

type askRequest struct {
	Question string `json:"question"`
	LLM      *bool  `json:"llm"`
}

type askResponse struct {
	*qa.Answer
	Report string `json:"report,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req askRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, r, apperr.InvalidInput("question is empty"))
		return
	}
	useLLM := s.cfg.QA.LLMEnabled
	if req.LLM != nil {
		useLLM = *req.LLM
	}
	parser, err := qa.NewParser(s.cfg, sess.Clean.Names(), useLLM, s.log)
	if err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.KindConfig, err, "llm parser"))
		return
	}
	d := qa.NewDispatcher(s.log)
	d.Parser = parser
	d.Executor = s.exec

	ans, err := d.Ask(r.Context(), sess.Clean, req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := askResponse{Answer: ans}
	if ans.Report != nil {
		ans.Report.Name = sess.Name
		resp.Report = ans.Report.Markdown()
	}
	writeJSON(w, http.StatusOK, resp)
}

type queryRequest struct {
	SQL string `json:"sql"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.exec.Run(r.Context(), sess.Clean, req.SQL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": res.Table, "truncated": res.Truncated})
}

// handleStats renders the quick stats report as markdown (default) or HTML.
// Query parameters: format=md|html, group_by=a,b, corr=false.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opt := analysis.DefaultOptions()
	if g := q.Get("group_by"); g != "" {
		opt.GroupBy = strings.Split(g, ",")
	}
	if q.Get("corr") == "false" {
		opt.Correlations = false
	}
	rep := analysis.Describe(sess.Clean, sess.Name, opt)

	switch q.Get("format") {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, rep.Markdown())
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, rep.HTML())
	default:
		s.writeError(w, r, apperr.InvalidInput("unknown format %q (use md or html)", q.Get("format")))
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(sess.Name, ".csv"))
	if err := ingest.WriteCSV(w, sess.Clean); err != nil {
		s.log.WithError(err).WithField("session", sess.ID).Error("csv export failed")
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(sess.Name, ".xlsx"))
	if err := ingest.WriteXLSX(w, sess.Clean, "cleaned"); err != nil {
		s.log.WithError(err).WithField("session", sess.ID).Error("xlsx export failed")
	}
}

func attachment(name, ext string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "data"
	}
	return fmt.Sprintf("attachment; filename=%q", base+"_cleaned"+ext)
}

func intParam(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.InvalidInput("invalid %s: %q", key, v)
	}
	return n, nil
}
