package evmi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SourceIdentifier annotates call trace frames with a human-readable
// contract name when an Etherscan-style API key is configured
// (SPEC_FULL.md §4.2: ETHERSCAN_KEY is optional; identification is
// best-effort and never fails a simulation). Each uncached lookup is a
// synchronous HTTP request bounded by a 5-second client timeout.
type SourceIdentifier struct {
	apiBase string
	apiKey  string
	client  *http.Client

	mu    sync.Mutex
	cache map[common.Address]string
}

// NewSourceIdentifier returns nil when apiKey is empty: callers treat a nil
// *SourceIdentifier as "identification disabled" rather than branching on a
// boolean everywhere.
func NewSourceIdentifier(apiBase, apiKey string) *SourceIdentifier {
	if apiKey == "" {
		return nil
	}
	if apiBase == "" {
		apiBase = "https://api.etherscan.io/api"
	}
	return &SourceIdentifier{
		apiBase: apiBase,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
		cache:   make(map[common.Address]string),
	}
}

type etherscanSourceResponse struct {
	Status string `json:"status"`
	Result []struct {
		ContractName string `json:"ContractName"`
	} `json:"result"`
}

// Identify returns the contract name for addr, or "" if it is unknown, not
// verified, or the lookup failed. Results are cached for the process
// lifetime since a deployed contract's name never changes.
func (s *SourceIdentifier) Identify(ctx context.Context, addr common.Address) string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	if name, ok := s.cache[addr]; ok {
		s.mu.Unlock()
		return name
	}
	s.mu.Unlock()

	name := s.fetch(ctx, addr)
	s.mu.Lock()
	s.cache[addr] = name
	s.mu.Unlock()
	return name
}

func (s *SourceIdentifier) fetch(ctx context.Context, addr common.Address) string {
	q := url.Values{}
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", addr.Hex())
	q.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", s.apiBase, q.Encode()), nil)
	if err != nil {
		return ""
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	var parsed etherscanSourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ""
	}
	if parsed.Status != "1" || len(parsed.Result) == 0 {
		return ""
	}
	return parsed.Result[0].ContractName
}
