// Package search: búsqueda global sobre los recursos con SearchFields.
package search

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"procurement-hub/internal/platform/logger"
	"procurement-hub/internal/resource"

	"github.com/go-chi/chi/v5"
)

const (
	minQueryLen  = 2
	defaultLimit = 5
	maxLimit     = 50
)

type Result struct {
	Query   string                    `json:"query"`
	Results map[string][]resource.Hit `json:"results"`
	Total   int                       `json:"total"`
}

type Service struct {
	searchers []resource.Searcher
}

func NewService(searchers ...resource.Searcher) *Service {
	return &Service{searchers: searchers}
}

// Types devuelve los nombres buscables en el orden de registro.
func (s *Service) Types() []string {
	out := make([]string, 0, len(s.searchers))
	for _, sr := range s.searchers {
		out = append(out, sr.Name())
	}
	return out
}

// Search consulta cada recurso pedido. Los que el actor no puede listar se omiten.
func (s *Service) Search(ctx context.Context, actor resource.Actor, q string, types []string, limit int) (Result, error) {
	if !actor.Authenticated() {
		return Result{}, resource.Unauthenticated()
	}
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minQueryLen {
		return Result{}, resource.Invalidf("q must be at least %d characters", minQueryLen)
	}
	if limit <= 0 || limit > maxLimit {
		return Result{}, resource.Invalidf("limit must be between 1 and %d", maxLimit)
	}

	wanted := map[string]bool{}
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !s.known(t) {
			return Result{}, resource.Invalidf("unknown search type %q (allowed: %s)", t, strings.Join(s.Types(), ", "))
		}
		wanted[t] = true
	}

	res := Result{Query: q, Results: map[string][]resource.Hit{}}
	for _, sr := range s.searchers {
		if len(wanted) > 0 && !wanted[sr.Name()] {
			continue
		}
		hits, err := sr.SearchHits(ctx, actor, q, limit)
		if errors.Is(err, resource.ErrForbidden) {
			continue
		}
		if err != nil {
			return Result{}, err
		}
		res.Results[sr.Name()] = hits
		res.Total += len(hits)
	}
	return res, nil
}

func (s *Service) known(name string) bool {
	for _, sr := range s.searchers {
		if sr.Name() == name {
			return true
		}
	}
	return false
}

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		actor, err := resource.ActorFromRequest(r)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		v := r.URL.Query()
		limit := defaultLimit
		if raw := v.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				resource.WriteError(w, r, log, resource.Invalidf("limit must be an integer"))
				return
			}
			limit = n
		}
		var types []string
		if raw := v.Get("types"); raw != "" {
			types = strings.Split(raw, ",")
		}
		res, err := svc.Search(r.Context(), actor, v.Get("q"), types, limit)
		if err != nil {
			resource.WriteError(w, r, log, err)
			return
		}
		resource.WriteJSON(w, http.StatusOK, res)
	})
}
