package agent

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/docsentry/docsentry/internal/models"
	"github.com/docsentry/docsentry/internal/types"
	"github.com/docsentry/docsentry/pkg/logx"
)

// ConflictIssue describes the only conflict class currently detected.
const ConflictIssue = "Multiple addresses found for the same company"

type AgentConfig struct {
	// ExpirationWindowDays is the rolling look-ahead for expirations.
	ExpirationWindowDays int
	// Now is injectable for deterministic tests; defaults to time.Now.
	Now func() time.Time
}

// Agent scans the whole indexed corpus for structured facts: approaching
// contract expirations and cross-document company/address conflicts.
// Findings are transient per run and never persisted.
type Agent struct {
	config AgentConfig
	index  types.VectorIndex
}

func NewWithConfig(index types.VectorIndex, config AgentConfig) *Agent {
	if config.ExpirationWindowDays == 0 {
		config.ExpirationWindowDays = 30
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Agent{config: config, index: index}
}

func New(index types.VectorIndex) *Agent {
	return NewWithConfig(index, AgentConfig{})
}

func (a *Agent) today() time.Time {
	now := a.config.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ExtractExpirations scans every stored chunk for expiration phrases and
// returns a finding for each parsed date inside [today, today+window], both
// ends inclusive. Unparseable tokens are skipped; every match is retained,
// without de-duplication. A bulk-read failure yields an empty result.
func (a *Agent) ExtractExpirations(ctx context.Context) []models.ExpirationFinding {
	chunks, err := a.index.GetAll(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("failed to read corpus for expiration scan")
		return nil
	}

	today := a.today()
	threshold := today.AddDate(0, 0, a.config.ExpirationWindowDays)

	var findings []models.ExpirationFinding
	for _, chunk := range chunks {
		for _, pattern := range ExpirationPatterns {
			for _, match := range pattern.FindAllStringSubmatch(chunk.Content, -1) {
				date, err := ParseContractDate(match[1])
				if err != nil {
					continue
				}
				if date.Before(today) || date.After(threshold) {
					continue
				}
				findings = append(findings, models.ExpirationFinding{
					Document:            chunk.Source(),
					Date:                date,
					DaysUntilExpiration: int(date.Sub(today).Hours() / 24),
				})
			}
		}
	}
	return findings
}

type companyRecord struct {
	addresses map[string][]string
	addrOrder []string
	documents []string
	docSeen   map[string]bool
}

// DetectConflicts scans every chunk for company and address labels and
// reports companies recorded with more than one distinct address. Address
// attribution is positional: an address binds to the nearest preceding
// company label in scan order within the same chunk, and addresses seen
// before any company label are dropped. This is a heuristic, not a
// guarantee of semantic correctness.
func (a *Agent) DetectConflicts(ctx context.Context) []models.ConflictFinding {
	chunks, err := a.index.GetAll(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("failed to read corpus for conflict scan")
		return nil
	}

	records := make(map[string]*companyRecord)
	var order []string

	record := func(company string) *companyRecord {
		r, ok := records[company]
		if !ok {
			r = &companyRecord{
				addresses: make(map[string][]string),
				docSeen:   make(map[string]bool),
			}
			records[company] = r
			order = append(order, company)
		}
		return r
	}

	for _, chunk := range chunks {
		doc := chunk.Source()

		current := ""
		for _, label := range scanLabels(chunk.Content) {
			switch label.kind {
			case labelCompany:
				current = strings.ToLower(strings.TrimSpace(label.value))
				if current == "" {
					continue
				}
				r := record(current)
				if !r.docSeen[doc] {
					r.docSeen[doc] = true
					r.documents = append(r.documents, doc)
				}
			case labelAddress:
				if current == "" {
					continue
				}
				address := strings.ToLower(strings.TrimSpace(label.value))
				if address == "" {
					continue
				}
				r := records[current]
				if _, ok := r.addresses[address]; !ok {
					r.addrOrder = append(r.addrOrder, address)
					r.addresses[address] = nil
				}
				if !containsString(r.addresses[address], doc) {
					r.addresses[address] = append(r.addresses[address], doc)
				}
			}
		}
	}

	var conflicts []models.ConflictFinding
	for _, company := range order {
		r := records[company]
		if len(r.addresses) < 2 {
			continue
		}
		addresses := make(map[string][]string, len(r.addresses))
		for addr, docs := range r.addresses {
			addresses[addr] = append([]string(nil), docs...)
		}
		conflicts = append(conflicts, models.ConflictFinding{
			Company:   company,
			Issue:     ConflictIssue,
			Addresses: addresses,
			Documents: append([]string(nil), r.documents...),
		})
	}
	return conflicts
}

type labelKind int

const (
	labelCompany labelKind = iota
	labelAddress
)

type label struct {
	kind  labelKind
	start int
	value string
}

// scanLabels merges company and address matches into document order so
// positional attribution is explicit.
func scanLabels(text string) []label {
	var labels []label
	for _, m := range CompanyPattern.FindAllStringSubmatchIndex(text, -1) {
		labels = append(labels, label{kind: labelCompany, start: m[0], value: text[m[2]:m[3]]})
	}
	for _, m := range AddressPattern.FindAllStringSubmatchIndex(text, -1) {
		labels = append(labels, label{kind: labelAddress, start: m[0], value: text[m[2]:m[3]]})
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].start < labels[j].start })
	return labels
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
