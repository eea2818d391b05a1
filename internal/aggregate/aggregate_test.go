package aggregate_test

import (
	"testing"
	"time"

	"github.com/AdguardTeam/PiholeExporter/internal/aggregate"
	"github.com/AdguardTeam/PiholeExporter/internal/piholeapi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newQuery returns a valid query.  upstream may be empty, which means that the
// query has no upstream.
func newQuery(qt, status, client, upstream string) (q *piholeapi.Query) {
	reply := "IP"
	q = &piholeapi.Query{
		Type:   &qt,
		Status: &status,
		Reply:  &piholeapi.QueryReply{Type: &reply},
		Client: &piholeapi.QueryClient{IP: &client},
	}

	if upstream != "" {
		q.Upstream = &upstream
	}

	return q
}

// newInput returns a valid input with the given queries and a minimal summary.
func newInput(queries ...*piholeapi.Query) (in *aggregate.Input) {
	u64 := func(v uint64) (p *uint64) { return &v }

	return &aggregate.Input{
		Summary: &piholeapi.Summary{
			Queries: &piholeapi.QueryStats{
				Types:         map[string]uint64{"AAAA": 30, "A": 60},
				Status:        map[string]uint64{},
				Replies:       map[string]uint64{"NODATA": 15},
				Total:         u64(100),
				Blocked:       u64(10),
				UniqueDomains: u64(42),
				Forwarded:     u64(80),
				Cached:        u64(10),
			},
			Clients: &piholeapi.ClientStats{
				Active: u64(3),
				Total:  u64(5),
			},
			Gravity: &piholeapi.GravityStats{
				DomainsBeingBlocked: u64(123456),
			},
		},
		Upstreams: &piholeapi.Upstreams{
			Upstreams: []*piholeapi.Upstream{},
		},
		Queries: &piholeapi.Queries{
			Queries: queries,
		},
	}
}

// entriesOf returns the entries of fam from entries.
func entriesOf(entries []aggregate.Entry, fam aggregate.Family) (res []aggregate.Entry) {
	for _, e := range entries {
		if e.Family == fam {
			res = append(res, e)
		}
	}

	return res
}

func TestAggregate_summary(t *testing.T) {
	ip, name, port, count := "1.1.1.1", "cloudflare", 53, uint64(80)
	blIP, blName, blPort, blCount := "blocklist", "blocklist", -1, uint64(10)

	in := newInput()
	in.Upstreams.Upstreams = []*piholeapi.Upstream{{
		IP:    &ip,
		Name:  &name,
		Port:  &port,
		Count: &count,
	}, {
		IP:    &blIP,
		Name:  &blName,
		Port:  &blPort,
		Count: &blCount,
	}}

	got := aggregate.Aggregate(in)
	want := []aggregate.Entry{{
		Family: aggregate.FamilyQueryByType,
		Labels: []string{"A"},
		Value:  60,
	}, {
		Family: aggregate.FamilyQueryByType,
		Labels: []string{"AAAA"},
		Value:  30,
	}, {
		Family: aggregate.FamilyQueryReplies,
		Labels: []string{"NODATA"},
		Value:  15,
	}, {
		Family: aggregate.FamilyQueryCount,
		Labels: []string{aggregate.CategoryBlocked},
		Value:  10,
	}, {
		Family: aggregate.FamilyQueryCount,
		Labels: []string{aggregate.CategoryCached},
		Value:  10,
	}, {
		Family: aggregate.FamilyQueryCount,
		Labels: []string{aggregate.CategoryForwarded},
		Value:  80,
	}, {
		Family: aggregate.FamilyQueryCount,
		Labels: []string{aggregate.CategoryTotal},
		Value:  100,
	}, {
		Family: aggregate.FamilyQueryCount,
		Labels: []string{aggregate.CategoryUnique},
		Value:  42,
	}, {
		Family: aggregate.FamilyClientCount,
		Labels: []string{aggregate.CategoryActive},
		Value:  3,
	}, {
		Family: aggregate.FamilyClientCount,
		Labels: []string{aggregate.CategoryTotal},
		Value:  5,
	}, {
		Family: aggregate.FamilyDomainsBeingBlocked,
		Value:  123456,
	}, {
		Family: aggregate.FamilyQueryUpstreamCount,
		Labels: []string{"1.1.1.1", "cloudflare", "53"},
		Value:  80,
	}, {
		Family: aggregate.FamilyQueryUpstreamCount,
		Labels: []string{"blocklist", "blocklist", "-1"},
		Value:  10,
	}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_uniqueDomains(t *testing.T) {
	got := entriesOf(aggregate.Aggregate(newInput()), aggregate.FamilyQueryCount)

	var unique []aggregate.Entry
	for _, e := range got {
		if e.Labels[0] == aggregate.CategoryUnique {
			unique = append(unique, e)
		}
	}

	require.Len(t, unique, 1)
	assert.Equal(t, int64(42), unique[0].Value)
}

func TestAggregate_window(t *testing.T) {
	in := newInput(
		newQuery("A", "FORWARDED", "192.168.1.2", "1.1.1.1"),
		newQuery("AAAA", "FORWARDED", "192.168.1.3", "1.1.1.1"),
		newQuery("A", "CACHE", "192.168.1.2", ""),
		newQuery("HTTPS", "GRAVITY", "192.168.1.4", ""),
		newQuery("A", "SPECIAL_DOMAIN", "192.168.1.2", ""),
		newQuery("A", "DENYLIST", "192.168.1.2", ""),
		newQuery("A", "CACHE", "192.168.1.2", "8.8.8.8"),
	)

	entries := aggregate.Aggregate(in)

	windowed := []aggregate.Family{
		aggregate.FamilyQueryType1m,
		aggregate.FamilyQueryStatus1m,
		aggregate.FamilyQueryReply1m,
		aggregate.FamilyQueryClient1m,
		aggregate.FamilyQueryUpstream1m,
	}

	for _, fam := range windowed {
		var sum int64
		for _, e := range entriesOf(entries, fam) {
			sum += e.Value
		}

		assert.Equalf(t, int64(len(in.Queries.Queries)), sum, "family %d", fam)
	}

	wantUpstreams := []aggregate.Entry{{
		Family: aggregate.FamilyQueryUpstream1m,
		Labels: []string{"1.1.1.1"},
		Value:  2,
	}, {
		Family: aggregate.FamilyQueryUpstream1m,
		Labels: []string{"8.8.8.8"},
		Value:  1,
	}, {
		Family: aggregate.FamilyQueryUpstream1m,
		Labels: []string{"None-CACHE"},
		Value:  1,
	}, {
		Family: aggregate.FamilyQueryUpstream1m,
		Labels: []string{"None-GRAVITY"},
		Value:  1,
	}, {
		Family: aggregate.FamilyQueryUpstream1m,
		Labels: []string{"None-OTHER"},
		Value:  1,
	}, {
		Family: aggregate.FamilyQueryUpstream1m,
		Labels: []string{"None-SPECIAL_DOMAIN"},
		Value:  1,
	}}

	got := entriesOf(entries, aggregate.FamilyQueryUpstream1m)
	if diff := cmp.Diff(wantUpstreams, got); diff != "" {
		t.Errorf("upstream entries mismatch (-want +got):\n%s", diff)
	}

	wantClients := []aggregate.Entry{{
		Family: aggregate.FamilyQueryClient1m,
		Labels: []string{"192.168.1.2"},
		Value:  5,
	}, {
		Family: aggregate.FamilyQueryClient1m,
		Labels: []string{"192.168.1.3"},
		Value:  1,
	}, {
		Family: aggregate.FamilyQueryClient1m,
		Labels: []string{"192.168.1.4"},
		Value:  1,
	}}

	got = entriesOf(entries, aggregate.FamilyQueryClient1m)
	if diff := cmp.Diff(wantClients, got); diff != "" {
		t.Errorf("client entries mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_emptyWindow(t *testing.T) {
	entries := aggregate.Aggregate(newInput())

	for _, e := range entries {
		assert.Falsef(t, e.Family.IsWindowed(), "unexpected entry %+v", e)
	}
}

func TestResolveUpstream(t *testing.T) {
	testCases := []struct {
		name     string
		status   string
		upstream string
		want     string
	}{{
		name:     "explicit",
		status:   "FORWARDED",
		upstream: "1.1.1.1#53",
		want:     "1.1.1.1#53",
	}, {
		name:     "explicit_cache",
		status:   "CACHE",
		upstream: "9.9.9.9",
		want:     "9.9.9.9",
	}, {
		name:     "explicit_gravity",
		status:   "GRAVITY",
		upstream: "None-OTHER",
		want:     "None-OTHER",
	}, {
		name:     "cache",
		status:   "CACHE",
		upstream: "",
		want:     "None-CACHE",
	}, {
		name:     "gravity",
		status:   "GRAVITY",
		upstream: "",
		want:     "None-GRAVITY",
	}, {
		name:     "special_domain",
		status:   "SPECIAL_DOMAIN",
		upstream: "",
		want:     "None-SPECIAL_DOMAIN",
	}, {
		name:     "forwarded",
		status:   "FORWARDED",
		upstream: "",
		want:     aggregate.UpstreamOther,
	}, {
		name:     "lowercase",
		status:   "cache",
		upstream: "",
		want:     aggregate.UpstreamOther,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := newQuery("A", tc.status, "192.168.1.2", tc.upstream)
			assert.Equal(t, tc.want, aggregate.ResolveUpstream(q))
		})
	}
}

func TestNewWindow(t *testing.T) {
	testCases := []struct {
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
		name      string
	}{{
		now:       time.Unix(1_700_000_059, 999),
		wantStart: time.Unix(1_699_999_980, 0),
		wantEnd:   time.Unix(1_700_000_040, 0),
		name:      "middle",
	}, {
		now:       time.Unix(1_700_000_040, 0),
		wantStart: time.Unix(1_699_999_980, 0),
		wantEnd:   time.Unix(1_700_000_040, 0),
		name:      "whole_minute",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := aggregate.NewWindow(tc.now)
			assert.True(t, tc.wantStart.Equal(w.Start), "start %s", w.Start)
			assert.True(t, tc.wantEnd.Equal(w.End), "end %s", w.End)
			assert.Equal(t, aggregate.WindowDuration, w.End.Sub(w.Start))
		})
	}
}

func TestFamily(t *testing.T) {
	fams := aggregate.Families()
	require.Len(t, fams, 12)

	var windowed int
	for _, f := range fams {
		assert.True(t, f.IsValid())
		if f.IsWindowed() {
			windowed++
		}
	}

	assert.Equal(t, 5, windowed)
	assert.False(t, aggregate.Family(len(fams)).IsValid())
}
