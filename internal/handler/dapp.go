package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/AlexZinkM/fhe-dapps/internal/dapp"
	"github.com/AlexZinkM/fhe-dapps/internal/handle"
	"github.com/AlexZinkM/fhe-dapps/internal/logger"
	"github.com/AlexZinkM/fhe-dapps/internal/model"

	"github.com/go-chi/chi/v5"
)

// History lists journaled steps. *store.Store satisfies it.
type History interface {
	List(dapp string, filter *model.HistoryRequest) ([]model.Entry, error)
}

// DappHandler serves the dApp pipeline over HTTP
type DappHandler struct {
	session *dapp.Session
	history History
	log     logger.Logger
}

// NewDappHandler creates a new DappHandler
func NewDappHandler(session *dapp.Session, history History, log logger.Logger) *DappHandler {
	return &DappHandler{session: session, history: history, log: log}
}

// List handles GET /api/dapps
// @Summary      List dApps
// @Description  Lists the dApps of the catalog with their actions and results
// @Tags         dapps
// @Produce      json
// @Success      200  {array}  model.DappSummary
// @Router       /api/dapps [get]
func (h *DappHandler) List(w http.ResponseWriter, r *http.Request) {
	catalog := h.session.Catalog()
	out := make([]model.DappSummary, 0, len(catalog.Dapps))
	for _, slug := range catalog.Slugs() {
		d, _ := catalog.Get(slug)
		out = append(out, d.Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/dapps/{slug}
// @Summary      Get dApp
// @Description  Returns the full catalog entry: ABI, actions with inputs and bounds, results with labels
// @Tags         dapps
// @Produce      json
// @Param        slug  path      string  true  "dApp slug"
// @Success      200   {object}  dapp.Dapp
// @Failure      404   {object}  model.ErrorResponse
// @Router       /api/dapps/{slug} [get]
func (h *DappHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.session.Catalog().Get(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Submit handles POST /api/dapps/{slug}/actions/{action}
// @Summary      Run action
// @Description  Encrypts the action inputs via the relayer, sends the transaction and reads back the result handle
// @Tags         dapps
// @Accept       json
// @Produce      json
// @Param        slug     path      string               true  "dApp slug"
// @Param        action   path      string               true  "Action name"
// @Param        request  body      model.ActionRequest  true  "Inputs and params"
// @Success      200      {object}  dapp.SubmitResult
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /api/dapps/{slug}/actions/{action} [post]
func (h *DappHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.ActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.session.Pipeline(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := p.Submit(r.Context(), chi.URLParam(r, "action"), req.Params)
	if err != nil {
		status, code := errorStatus(err)
		resp := model.ErrorResponse{Error: err.Error(), Code: code}
		if res != nil {
			resp.TxHash = res.TxHash
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Handle handles GET /api/dapps/{slug}/results/{result}/handle
// @Summary      Get result handle
// @Description  Reads the stored ciphertext handle. Query parameters are passed as result params
// @Tags         dapps
// @Produce      json
// @Param        slug    path      string  true  "dApp slug"
// @Param        result  path      string  true  "Result name"
// @Success      200     {object}  model.HandleResponse
// @Failure      404     {object}  model.ErrorResponse
// @Router       /api/dapps/{slug}/results/{result}/handle [get]
func (h *DappHandler) Handle(w http.ResponseWriter, r *http.Request) {
	p, err := h.session.Pipeline(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	params := model.Params{}
	for k, v := range r.URL.Query() {
		params[k] = v[0]
	}

	result := chi.URLParam(r, "result")
	hd, err := p.Handle(r.Context(), result, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.HandleResponse{
		Dapp:   p.Dapp().Slug,
		Result: result,
		Handle: hd.Hex(),
	})
}

// MakePublic handles POST /api/dapps/{slug}/results/{result}/public
// @Summary      Make result public
// @Description  Calls the result's make-public method so it can be publicly decrypted
// @Tags         dapps
// @Accept       json
// @Produce      json
// @Param        slug     path      string               true   "dApp slug"
// @Param        result   path      string               true   "Result name"
// @Param        request  body      model.ResultRequest  false  "Result params"
// @Success      200      {object}  dapp.TxResult
// @Failure      409      {object}  model.ErrorResponse
// @Router       /api/dapps/{slug}/results/{result}/public [post]
func (h *DappHandler) MakePublic(w http.ResponseWriter, r *http.Request) {
	var req model.ResultRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.session.Pipeline(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := p.MakePublic(r.Context(), chi.URLParam(r, "result"), req.Params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Decrypt handles POST /api/dapps/{slug}/results/{result}/decrypt
// @Summary      Decrypt result
// @Description  Publicly decrypts the result via the relayer and maps the value to its label
// @Tags         dapps
// @Accept       json
// @Produce      json
// @Param        slug     path      string                true   "dApp slug"
// @Param        result   path      string                true   "Result name"
// @Param        request  body      model.DecryptRequest  false  "Params, optional handle and makePublic flag"
// @Success      200      {object}  dapp.Outcome
// @Failure      400      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /api/dapps/{slug}/results/{result}/decrypt [post]
func (h *DappHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	var req model.DecryptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.session.Pipeline(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	opts := dapp.DecryptOptions{MakePublic: req.MakePublic}
	if req.Handle != "" {
		hd, err := handle.Parse(req.Handle)
		if err != nil {
			writeError(w, err)
			return
		}
		opts.Handle = &hd
	}

	out, err := p.Decrypt(r.Context(), chi.URLParam(r, "result"), req.Params, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DecryptAll handles POST /api/dapps/{slug}/decrypt
// @Summary      Decrypt several results
// @Description  Publicly decrypts the named results in one relayer request, reading a shared getter once
// @Tags         dapps
// @Accept       json
// @Produce      json
// @Param        slug     path      string                     true  "dApp slug"
// @Param        request  body      model.BatchDecryptRequest  true  "Result names, params and makePublic flag"
// @Success      200      {array}   dapp.Outcome
// @Failure      400      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /api/dapps/{slug}/decrypt [post]
func (h *DappHandler) DecryptAll(w http.ResponseWriter, r *http.Request) {
	var req model.BatchDecryptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.session.Pipeline(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := p.DecryptAll(r.Context(), req.Results, req.Params, req.MakePublic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// RawDecrypt handles POST /api/decrypt
// @Summary      Public decrypt
// @Description  Publicly decrypts any handle that was made public
// @Tags         dapps
// @Accept       json
// @Produce      json
// @Param        request  body      model.RawDecryptRequest  true  "Handle"
// @Success      200      {object}  model.RawDecryptResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /api/decrypt [post]
func (h *DappHandler) RawDecrypt(w http.ResponseWriter, r *http.Request) {
	var req model.RawDecryptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	hd, err := handle.Parse(req.Handle)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := h.session.PublicDecrypt(r.Context(), hd)
	if err != nil {
		h.log.Error("public decrypt failed", "handle", hd.Hex(), "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.RawDecryptResponse{Handle: hd.Hex(), Value: v.Dec()})
}

// History handles GET /api/dapps/{slug}/history
// @Summary      Get dApp history
// @Description  Lists journaled pipeline steps, newest first
// @Tags         dapps
// @Produce      json
// @Param        slug    path      string  true   "dApp slug"
// @Param        action  query     string  false  "Action or result name"
// @Param        step    query     string  false  "submit, handle, make_public or decrypt"
// @Param        status  query     string  false  "ok or failed"
// @Param        from    query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to      query     string  false  "End date (YYYY-MM-DD)"
// @Param        limit   query     int     false  "Maximum number of entries"
// @Success      200     {object}  model.HistoryResponse
// @Failure      400     {object}  model.ErrorResponse
// @Router       /api/dapps/{slug}/history [get]
func (h *DappHandler) History(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, err := h.session.Catalog().Get(slug); err != nil {
		writeError(w, err)
		return
	}

	var req model.HistoryRequest
	q := r.URL.Query()

	// Parse date parameters (YYYY-MM-DD)
	const dateLayout = "2006-01-02"
	if fromStr := q.Get("from"); fromStr != "" {
		t, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			badRequest(w, "invalid from date: use YYYY-MM-DD (e.g. 2006-01-02)")
			return
		}
		req.From = &t
	}
	if toStr := q.Get("to"); toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			badRequest(w, "invalid to date: use YYYY-MM-DD (e.g. 2006-01-02)")
			return
		}
		// End of day so filter is inclusive
		t = t.Add(24*time.Hour - time.Nanosecond)
		req.To = &t
	}
	if name := q.Get("action"); name != "" {
		req.Name = &name
	}
	if step := q.Get("step"); step != "" {
		s := model.Step(step)
		req.Step = &s
	}
	if status := q.Get("status"); status != "" {
		s := model.Status(status)
		req.Status = &s
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			badRequest(w, "invalid limit")
			return
		}
		req.Limit = n
	}

	if err := req.Validate(); err != nil {
		badRequest(w, err.Error())
		return
	}

	entries, err := h.history.List(slug, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.HistoryResponse{Dapp: slug, Entries: entries})
}

// decodeBody decodes an optional JSON body into v. It writes the error and
// returns false on malformed input.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	badRequest(w, "invalid request body: "+err.Error())
	return false
}
