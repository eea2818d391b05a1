package metrics

import (
	"github.com/AdguardTeam/PiholeExporter/internal/aggregate"
)

// Label names of the families.
const (
	labelCategory      = "category"
	labelIP            = "ip"
	labelName          = "name"
	labelPort          = "port"
	labelQueryClient   = "query_client"
	labelQueryStatus   = "query_status"
	labelQueryType     = "query_type"
	labelQueryUpstream = "query_upstream"
	labelReplyType     = "reply_type"
)

// familyDesc describes a single exported family.
type familyDesc struct {
	name   string
	help   string
	labels []string
}

// familyDescs are the descriptions of the families indexed by
// [aggregate.Family].
var familyDescs = [...]familyDesc{
	aggregate.FamilyQueryByType: {
		name:   "query_by_type",
		help:   "Count of queries by type (24h)",
		labels: []string{labelQueryType},
	},
	aggregate.FamilyQueryByStatus: {
		name:   "query_by_status",
		help:   "Count of queries by status over 24h",
		labels: []string{labelQueryStatus},
	},
	aggregate.FamilyQueryReplies: {
		name:   "query_replies",
		help:   "Count of replies by type over 24h",
		labels: []string{labelReplyType},
	},
	aggregate.FamilyQueryCount: {
		name:   "query_count",
		help:   "Query counts by category, 24h",
		labels: []string{labelCategory},
	},
	aggregate.FamilyClientCount: {
		name:   "client_count",
		help:   "Total/active client counts",
		labels: []string{labelCategory},
	},
	aggregate.FamilyDomainsBeingBlocked: {
		name: "domains_being_blocked",
		help: "Number of domains on current blocklist",
	},
	aggregate.FamilyQueryUpstreamCount: {
		name:   "query_upstream_count",
		help:   "Total query upstream counts (24h)",
		labels: []string{labelIP, labelName, labelPort},
	},
	aggregate.FamilyQueryType1m: {
		name:   "query_type_1m",
		help:   "Count of query types (last whole 1m)",
		labels: []string{labelQueryType},
	},
	aggregate.FamilyQueryStatus1m: {
		name:   "query_status_1m",
		help:   "Count of query status (last whole 1m)",
		labels: []string{labelQueryStatus},
	},
	aggregate.FamilyQueryReply1m: {
		name:   "query_reply_1m",
		help:   "Count of query reply types (last whole 1m)",
		labels: []string{labelReplyType},
	},
	aggregate.FamilyQueryClient1m: {
		name:   "query_client_1m",
		help:   "Count of query clients (last whole 1m)",
		labels: []string{labelQueryClient},
	},
	aggregate.FamilyQueryUpstream1m: {
		name:   "query_upstream_1m",
		help:   "Count of query upstream destinations (last whole 1m)",
		labels: []string{labelQueryUpstream},
	},
}
