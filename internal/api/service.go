package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/FocuswithJustin/punctfix/core/cas"
	perrors "github.com/FocuswithJustin/punctfix/core/errors"
	"github.com/FocuswithJustin/punctfix/core/punct"
	"github.com/FocuswithJustin/punctfix/internal/cache"
	"github.com/FocuswithJustin/punctfix/internal/journal"
	"github.com/FocuswithJustin/punctfix/internal/logging"
	"github.com/FocuswithJustin/punctfix/internal/validation"
)

// engineKey versions cache and CAS keys. Bump it when the pipeline output changes.
const engineKey = "punct/1"

// NormalizeRequest is the body of POST /normalize and POST /jobs.
type NormalizeRequest struct {
	Text           string        `json:"text"`
	Options        punct.Options `json:"options"`
	IncludeChanges bool          `json:"include_changes,omitempty"`
}

// NormalizeResponse pairs the input with its normalized result.
type NormalizeResponse struct {
	Input        string             `json:"input"`
	Result       string             `json:"result"`
	InputBlake3  string             `json:"input_blake3"`
	ResultSHA256 string             `json:"result_sha256"`
	Lines        int                `json:"lines"`
	ChangedLines int                `json:"changed_lines"`
	Changes      []punct.LineChange `json:"changes,omitempty"`
	Cached       bool               `json:"cached"`
	RunID        string             `json:"run_id,omitempty"`
}

type cachedResult struct {
	output string
	sha256 string
}

// Service runs normalizations for the HTTP layer. It consults the memory
// cache, then the CAS key index, and only then the engine.
type Service struct {
	store   *cas.Store
	cache   *cache.TTLCache[string, cachedResult] // nil when disabled
	journal *journal.Journal                     // optional
	workers int
	limit   int
}

// NewService wires a service. cacheTTL of zero disables the memory cache.
func NewService(store *cas.Store, j *journal.Journal, cacheTTL time.Duration, cacheSize, workers, limit int) *Service {
	s := &Service{store: store, journal: j, workers: workers, limit: limit}
	if cacheTTL > 0 {
		s.cache = cache.New[string, cachedResult](cacheTTL, cacheSize)
	}
	return s
}

// requestKey identifies the output of a request. Workers is left out
// because it never changes the result.
func requestKey(req NormalizeRequest) string {
	opts, _ := json.Marshal(struct {
		FoldWidth bool `json:"fold_width"`
	}{req.Options.FoldWidth})
	return cas.Key([]byte(engineKey), opts, []byte(req.Text))
}

// Normalize validates req and returns the paired response.
func (s *Service) Normalize(ctx context.Context, req NormalizeRequest, source string) (NormalizeResponse, error) {
	if err := validation.ValidateText(req.Text, s.limit); err != nil {
		return NormalizeResponse{}, err
	}
	if err := validation.ValidateWorkers(req.Options.Workers); err != nil {
		return NormalizeResponse{}, err
	}

	start := time.Now()
	key := requestKey(req)
	res, cached, err := s.lookup(key)
	if err != nil {
		return NormalizeResponse{}, err
	}
	if !cached {
		opts := req.Options
		if opts.Workers == 0 {
			opts.Workers = s.workers
		}
		out, err := punct.Run(ctx, req.Text, opts)
		if err != nil {
			return NormalizeResponse{}, err
		}
		sha, err := s.store.PutKeyed(key, []byte(out))
		if err != nil {
			return NormalizeResponse{}, err
		}
		res = cachedResult{output: out, sha256: sha}
	}
	if s.cache != nil {
		s.cache.Set(key, res)
	}

	rep := punct.Compare(req.Text, res.output)
	resp := NormalizeResponse{
		Input:        req.Text,
		Result:       res.output,
		InputBlake3:  cas.Blake3Hash([]byte(req.Text)),
		ResultSHA256: res.sha256,
		Lines:        rep.Lines,
		ChangedLines: len(rep.Changes),
		Cached:       cached,
	}
	if req.IncludeChanges {
		resp.Changes = rep.Changes
	}

	elapsed := time.Since(start)
	if s.journal != nil {
		run, err := s.journal.Record(ctx, journal.Run{
			Source:       source,
			Command:      "normalize",
			InputBlake3:  resp.InputBlake3,
			OutputBlake3: cas.Blake3Hash([]byte(res.output)),
			Lines:        resp.Lines,
			ChangedLines: resp.ChangedLines,
			Duration:     elapsed,
		})
		if err != nil {
			logging.WarnContext(ctx, "journal write failed", "error", err)
		} else {
			resp.RunID = run.ID
		}
	}
	logging.RunEvent(source, resp.Lines, resp.ChangedLines, elapsed, "cached", cached)
	return resp, nil
}

func (s *Service) lookup(key string) (cachedResult, bool, error) {
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			return res, true, nil
		}
	}
	data, sha, err := s.store.GetKeyed(key)
	if err == nil {
		return cachedResult{output: string(data), sha256: sha}, true, nil
	}
	if perrors.Is(err, cas.ErrBlobNotFound) {
		return cachedResult{}, false, nil
	}
	return cachedResult{}, false, err
}

// CacheStats reports memory cache hits and misses.
func (s *Service) CacheStats() (hits, misses uint64) {
	if s.cache == nil {
		return 0, 0
	}
	return s.cache.Stats()
}
