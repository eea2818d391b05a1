// Package aggregate converts the responses of the Pi-hole API into metric
// entries.  It performs no I/O.
package aggregate

import (
	"maps"
	"slices"
	"strconv"

	"github.com/AdguardTeam/PiholeExporter/internal/piholeapi"
)

// Family is the identifier of a metric family.
type Family uint8

// Family values.  The order is the order of the families in the output of
// [Aggregate].
const (
	FamilyQueryByType Family = iota
	FamilyQueryByStatus
	FamilyQueryReplies
	FamilyQueryCount
	FamilyClientCount
	FamilyDomainsBeingBlocked
	FamilyQueryUpstreamCount
	FamilyQueryType1m
	FamilyQueryStatus1m
	FamilyQueryReply1m
	FamilyQueryClient1m
	FamilyQueryUpstream1m

	// familyMax must be the last.
	familyMax
)

// Families returns all valid families in the output order.
func Families() (fams []Family) {
	fams = make([]Family, 0, familyMax)
	for f := range familyMax {
		fams = append(fams, f)
	}

	return fams
}

// IsValid returns true if f is a known family.
func (f Family) IsValid() (ok bool) {
	return f < familyMax
}

// IsWindowed returns true if f is computed from the query log of a single
// [Window] rather than from the rolling counters of the Pi-hole.
func (f Family) IsWindowed() (ok bool) {
	return f >= FamilyQueryType1m && f < familyMax
}

// Category label values of [FamilyQueryCount].  Note that the unique domains
// count is exported as "unique".
const (
	CategoryTotal     = "total"
	CategoryBlocked   = "blocked"
	CategoryUnique    = "unique"
	CategoryForwarded = "forwarded"
	CategoryCached    = "cached"
)

// CategoryActive is the category label value of [FamilyClientCount] for the
// active clients.  The total number of clients uses [CategoryTotal].
const CategoryActive = "active"

// Entry is a single value of a metric family.
type Entry struct {
	// Labels are the label values in the order of the label names of Family.
	// It is empty for unlabeled families.
	Labels []string

	// Value is the value of the time series.
	Value int64

	// Family is the family of the entry.
	Family Family
}

// Input is the data for a single collection cycle.  All fields must be
// non-nil and validated.
type Input struct {
	Summary   *piholeapi.Summary
	Upstreams *piholeapi.Upstreams
	Queries   *piholeapi.Queries
}

// Aggregate returns the entries computed from in.  Entries are ordered by
// family and then by labels.  in must not be nil.
func Aggregate(in *Input) (entries []Entry) {
	s := in.Summary
	q := s.Queries

	entries = appendCounts(entries, FamilyQueryByType, toCounts(q.Types))
	entries = appendCounts(entries, FamilyQueryByStatus, toCounts(q.Status))
	entries = appendCounts(entries, FamilyQueryReplies, toCounts(q.Replies))
	entries = appendCounts(entries, FamilyQueryCount, map[string]int64{
		CategoryTotal:     int64(*q.Total),
		CategoryBlocked:   int64(*q.Blocked),
		CategoryUnique:    int64(*q.UniqueDomains),
		CategoryForwarded: int64(*q.Forwarded),
		CategoryCached:    int64(*q.Cached),
	})
	entries = appendCounts(entries, FamilyClientCount, map[string]int64{
		CategoryActive: int64(*s.Clients.Active),
		CategoryTotal:  int64(*s.Clients.Total),
	})
	entries = append(entries, Entry{
		Family: FamilyDomainsBeingBlocked,
		Value:  int64(*s.Gravity.DomainsBeingBlocked),
	})

	entries = appendUpstreams(entries, in.Upstreams.Upstreams)

	return appendWindow(entries, in.Queries.Queries)
}

// toCounts converts the counters of a summary map.
func toCounts(m map[string]uint64) (counts map[string]int64) {
	counts = make(map[string]int64, len(m))
	for k, v := range m {
		counts[k] = int64(v)
	}

	return counts
}

// appendCounts appends the entries of the single-label family fam to entries
// in the order of the labels.
func appendCounts(entries []Entry, fam Family, counts map[string]int64) (res []Entry) {
	res = entries
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		res = append(res, Entry{
			Family: fam,
			Labels: []string{k},
			Value:  counts[k],
		})
	}

	return res
}

// appendUpstreams appends the entries of [FamilyQueryUpstreamCount] to entries.
func appendUpstreams(entries []Entry, ups []*piholeapi.Upstream) (res []Entry) {
	start := len(entries)
	res = entries
	for _, u := range ups {
		res = append(res, Entry{
			Family: FamilyQueryUpstreamCount,
			Labels: []string{*u.IP, *u.Name, strconv.Itoa(*u.Port)},
			Value:  int64(*u.Count),
		})
	}

	slices.SortStableFunc(res[start:], compareLabels)

	return res
}

// compareLabels compares entries by their labels.
func compareLabels(a, b Entry) (res int) {
	return slices.Compare(a.Labels, b.Labels)
}

// windowCounts are the counters of the queries of a single window.
type windowCounts struct {
	types     map[string]int64
	statuses  map[string]int64
	replies   map[string]int64
	clients   map[string]int64
	upstreams map[string]int64
}

// appendWindow reduces queries and appends the entries of the windowed
// families to entries.  Empty queries produce no entries.
func appendWindow(entries []Entry, queries []*piholeapi.Query) (res []Entry) {
	c := &windowCounts{
		types:     map[string]int64{},
		statuses:  map[string]int64{},
		replies:   map[string]int64{},
		clients:   map[string]int64{},
		upstreams: map[string]int64{},
	}

	for _, q := range queries {
		c.types[*q.Type]++
		c.statuses[*q.Status]++
		c.replies[*q.Reply.Type]++
		c.clients[*q.Client.IP]++
		c.upstreams[ResolveUpstream(q)]++
	}

	res = appendCounts(entries, FamilyQueryType1m, c.types)
	res = appendCounts(res, FamilyQueryStatus1m, c.statuses)
	res = appendCounts(res, FamilyQueryReply1m, c.replies)
	res = appendCounts(res, FamilyQueryClient1m, c.clients)

	return appendCounts(res, FamilyQueryUpstream1m, c.upstreams)
}

// Statuses of queries that never reach an upstream and therefore get a
// dedicated label in [ResolveUpstream].
const (
	StatusCache         = "CACHE"
	StatusGravity       = "GRAVITY"
	StatusSpecialDomain = "SPECIAL_DOMAIN"
)

// UpstreamOther is the upstream label of the queries without an upstream that
// have any other status.
const UpstreamOther = "None-OTHER"

// upstreamPrefix is the prefix of the synthetic upstream labels.
const upstreamPrefix = "None-"

// ResolveUpstream returns the upstream label for q.  It is the upstream of q
// if there is one.  Otherwise, it is "None-<status>" for the statuses above and
// [UpstreamOther] for the rest.  q must be valid.
func ResolveUpstream(q *piholeapi.Query) (upstream string) {
	if q.Upstream != nil {
		return *q.Upstream
	}

	switch status := *q.Status; status {
	case StatusCache, StatusGravity, StatusSpecialDomain:
		return upstreamPrefix + status
	default:
		return UpstreamOther
	}
}
