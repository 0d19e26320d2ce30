// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search resolves references for a drafted paper. It queries
// scholarly APIs concurrently, merges duplicate works, ranks them, and
// renders citations in the requested style.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// Backend searches a single scholarly API.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]Candidate, error)
}

// Query holds the search parameters.
type Query struct {
	FreeText string
	Keywords []string
	DateFrom time.Time
	DateTo   time.Time
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.FreeText) == "" && len(q.Keywords) == 0
}

// text combines the free text and keywords into one search string.
func (q Query) text() string {
	parts := make([]string, 0, 1+len(q.Keywords))
	if q.FreeText != "" {
		parts = append(parts, q.FreeText)
	}
	parts = append(parts, q.Keywords...)
	return strings.Join(parts, " ")
}

// Candidate is a work returned by a backend, before citation rendering.
type Candidate struct {
	// Identifier is a DOI when the backend knows one, else a backend ID.
	Identifier     string
	Title          string
	Authors        []string
	Abstract       string
	Venue          string
	Date           time.Time
	Source         string
	RelevanceScore float64
}

// Output holds ranked candidates and dedup statistics.
type Output struct {
	Candidates    []Candidate
	DupsRemoved   int
	BackendErrors []string
}

// ErrAllBackendsFailed is returned when no backend produced results.
var ErrAllBackendsFailed = errors.New("all search backends failed")

// Search fans out the query to all backends concurrently, deduplicates
// results, ranks them, and returns the top cfg.MaxResults. Individual
// backend failures are tolerated as long as one backend succeeds.
func Search(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, logger *zap.Logger) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide a title, topics, or keywords")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	type backendResult struct {
		results []Candidate
		err     error
		name    string
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup
	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			results, err := b.Search(ctx, query, cfg)
			ch <- backendResult{results: results, err: err, name: b.Name()}
		}(b)
	}
	wg.Wait()
	close(ch)

	// Collect in backend order so ties rank deterministically.
	byName := make(map[string]backendResult, len(backends))
	for br := range ch {
		byName[br.name] = br
	}

	var all []Candidate
	var backendErrors []string
	for _, b := range backends {
		br := byName[b.Name()]
		if br.err != nil {
			backendErrors = append(backendErrors, fmt.Sprintf("%s: %v", br.name, br.err))
			logger.Warn("search backend failed", zap.String("backend", br.name), zap.Error(br.err))
			continue
		}
		all = append(all, br.results...)
	}
	if len(backendErrors) == len(backends) {
		return Output{BackendErrors: backendErrors}, fmt.Errorf("%w: %s", ErrAllBackendsFailed, strings.Join(backendErrors, "; "))
	}

	deduped, removed := deduplicate(all)

	if cfg.RecencyBiasWindow > 0 {
		applyRecencyBias(deduped, cfg.RecencyBiasWindow, time.Now())
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	if cfg.MaxResults > 0 && len(deduped) > cfg.MaxResults {
		deduped = deduped[:cfg.MaxResults]
	}

	return Output{
		Candidates:    deduped,
		DupsRemoved:   removed,
		BackendErrors: backendErrors,
	}, nil
}

// deduplicate merges candidates that share an identifier or normalized title.
func deduplicate(results []Candidate) ([]Candidate, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []Candidate
	removed := 0

	for _, r := range results {
		idKey := ""
		if r.Identifier != "" {
			idKey = "id:" + strings.ToLower(r.Identifier)
		}
		titleKey := ""
		if t := normalizeTitle(r.Title); t != "" {
			titleKey = "title:" + t
		}

		idx, ok := seen[idKey]
		if !ok || idKey == "" {
			idx, ok = seen[titleKey]
			ok = ok && titleKey != ""
		}
		if ok {
			mergeInto(&deduped[idx], r)
			removed++
			continue
		}

		idx = len(deduped)
		deduped = append(deduped, r)
		if idKey != "" {
			seen[idKey] = idx
		}
		if titleKey != "" {
			seen[titleKey] = idx
		}
	}
	return deduped, removed
}

// mergeInto fills empty fields of dst from src and keeps the higher score.
func mergeInto(dst *Candidate, src Candidate) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.Date.IsZero() {
		dst.Date = src.Date
	}
	// Prefer a DOI over backend-specific IDs.
	if isDOI(src.Identifier) && !isDOI(dst.Identifier) {
		dst.Identifier = src.Identifier
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
	}
	if dst.Source != src.Source && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

func isDOI(s string) bool {
	return strings.HasPrefix(s, "10.")
}

// normalizeTitle returns a lowercased version of the title with punctuation
// turned into word breaks, so "Heat-Shock" and "Heat Shock" compare equal.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// applyRecencyBias boosts scores for papers published within the window.
func applyRecencyBias(results []Candidate, window time.Duration, now time.Time) {
	for i := range results {
		if results[i].Date.IsZero() {
			continue
		}
		age := now.Sub(results[i].Date)
		if age >= 0 && age <= window {
			boost := 0.2 * (1.0 - float64(age)/float64(window))
			results[i].RelevanceScore = math.Min(1.0, results[i].RelevanceScore+boost)
		}
	}
}

// positionScore maps a result's rank within one backend response to a score
// between 1.0 (first) and 0.1 (last).
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}

func parseDate(date string, year int) time.Time {
	if date != "" {
		if t, err := time.Parse("2006-01-02", date); err == nil {
			return t
		}
	}
	if year > 0 {
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}
