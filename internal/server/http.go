package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/karupanerura/calculator/internal/expression"
	"github.com/karupanerura/calculator/internal/types"
)

const (
	basePath = "/v1/evaluations"

	maxRequestBodySize = 1 << 20
)

type evaluationRequest struct {
	Expression *string            `json:"expression"`
	Tokens     []expression.Token `json:"tokens"`
}

type evaluation struct {
	Name       string             `json:"name"`
	CreateTime time.Time          `json:"createTime"`
	Expression string             `json:"expression"`
	Tokens     []expression.Token `json:"tokens,omitempty"`
	Result     *expression.Result `json:"result,omitempty"`
	Error      any                `json:"error,omitempty"`
}

type httpHandler struct {
	evaluator   *expression.Evaluator
	idBase      uint64
	evaluations sync.Map
	now         func() time.Time
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == basePath:
		switch r.Method {
		case http.MethodGet:
			h.listEvaluations(w, r)
			return

		case http.MethodPost:
			h.createEvaluation(w, r)
			return

		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

	case strings.HasPrefix(r.URL.Path, basePath+"/"):
		id := strings.TrimPrefix(r.URL.Path, basePath+"/")
		if id == "" || strings.ContainsRune(id, '/') {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodGet:
			h.getEvaluation(w, r, id)
			return

		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func (h *httpHandler) createEvaluation(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer body.Close()

	var req evaluationRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		log.Printf("failed to decode request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if (req.Expression == nil) == (req.Tokens == nil) {
		http.Error(w, "Bad Request: exactly one of expression or tokens is required", http.StatusBadRequest)
		return
	}

	id := fmt.Sprintf("%012x", atomic.AddUint64(&h.idBase, 1))
	ev := &evaluation{
		Name:       basePath + "/" + id,
		CreateTime: h.now().UTC(),
	}

	var (
		ret *expression.Result
		err error
	)
	if req.Expression != nil {
		ev.Expression = *req.Expression
		ret, err = h.evaluator.EvaluateString(ev.Expression)
	} else {
		ev.Expression = expression.RenderTokens(req.Tokens)
		ev.Tokens = req.Tokens
		ret, err = h.evaluator.Evaluate(req.Tokens)
	}
	if err != nil {
		ev.Error = renderError(err)
	} else {
		ev.Result = ret
	}

	h.evaluations.Store(id, ev)
	if err := resJSON(w, http.StatusOK, ev); err != nil {
		log.Printf("failed to write evaluation: %v", err)
	}
}

func (h *httpHandler) listEvaluations(w http.ResponseWriter, r *http.Request) {
	results := []*evaluation{}
	h.evaluations.Range(func(key, value any) bool {
		results = append(results, value.(*evaluation))
		return true
	})
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreateTime.Equal(results[j].CreateTime) {
			return results[i].Name < results[j].Name
		}
		return results[i].CreateTime.Before(results[j].CreateTime)
	})

	if err := resJSON(w, http.StatusOK, map[string][]*evaluation{"evaluations": results}); err != nil {
		log.Printf("failed to write evaluations: %v", err)
	}
}

func (h *httpHandler) getEvaluation(w http.ResponseWriter, r *http.Request, id string) {
	ret, ok := h.evaluations.Load(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if err := resJSON(w, http.StatusOK, ret.(*evaluation)); err != nil {
		log.Printf("failed to write evaluation: %v", err)
	}
}

// NewHTTPHandler returns the evaluation API. Evaluations are kept in memory
// for the lifetime of the handler.
func NewHTTPHandler(evaluator *expression.Evaluator) http.Handler {
	if evaluator == nil {
		evaluator = &expression.Evaluator{}
	}
	return &httpHandler{
		evaluator: evaluator,
		now:       time.Now,
	}
}

func renderError(err error) any {
	var exception types.Exception
	if errors.As(err, &exception) {
		return exception.Exception()
	}
	return err.Error()
}

func resJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
