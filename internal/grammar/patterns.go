package grammar

// Built-in grammar names, listed in match priority order.
const (
	NCSAExtendedDomainIPList = "ncsa_extended_domain_ip_list"
	NCSAExtendedDomain       = "ncsa_extended_domain"
	NCSAExtendedIPList       = "ncsa_extended_ip_list"
	NCSAExtended             = "ncsa_extended"
	BunnyEdge                = "bunny_edge"
)

// Capture group names understood by Grammar.
const (
	groupAddress     = "ip"
	groupAddressList = "ip_list"
	groupDate        = "date"
	groupEpoch       = "timestamp"
)

// Building blocks of the NCSA family. The layout follows the matomo log
// importer: host ident authuser [date offset] "request" status bytes.
const (
	patternAddress = `(?P<ip>[\w*.:-]+)`

	// The list tail must leave room for the ident and authuser fields, so a
	// plain three-token prefix never matches as a list.
	patternAddressList = `(?P<ip>[\w*.:-]+)\s(?P<ip_list>[\w*.:,\s-]+?)`

	patternCommonTail = `\s+\S+\s+(?P<userid>\S+)\s+\[(?P<date>.*[^\-\+\s])\s*(?P<timezone>[+-]?\d{4})\]\s+` +
		`"(?P<method>\S+)\s+(?P<path>.*?)\s+\S+"\s+(?P<status>\d+)\s+(?P<length>\S+)`

	patternExtendedTail = `\s+"(?P<referrer>.*?)"\s+"(?P<user_agent>.*?)"`

	// A virtual-host prefix: any single token, hostname or address literal.
	// "vhost-addr client-addr - -" lines therefore resolve to the client.
	patternDomain = `(?P<domain>\S+?)\s`
)

// NCSA extended log format variants.
const (
	PatternNCSAExtended             = `^` + patternAddress + patternCommonTail + patternExtendedTail
	PatternNCSAExtendedIPList       = `^` + patternAddressList + patternCommonTail + patternExtendedTail
	PatternNCSAExtendedDomain       = `^` + patternDomain + patternAddress + patternCommonTail + patternExtendedTail
	PatternNCSAExtendedDomainIPList = `^` + patternDomain + patternAddressList + patternCommonTail + patternExtendedTail
)

// PatternBunnyEdge matches the pipe-delimited Bunny CDN export:
// cache|status|epoch|bytes|zone|ip|referrer|url|country|user agent|request id|country.
const PatternBunnyEdge = `^(?P<cache>HIT|MISS)\|(?P<status>\d{3})\|(?P<timestamp>\d{10})\|(?P<bytes>\d+)\|` +
	`(?P<zone>\d+)\|(?P<ip>\d{1,3}(?:\.\d{1,3}){3})\|` +
	`(?P<others>[^|]*\|https?://[^|]+\|[A-Z]{2}\|[^|]+\|[a-f0-9]{32}\|[A-Z]{2})$`

// builtinPatterns holds the built-in grammars in priority order.
var builtinPatterns = []struct {
	name    string
	pattern string
}{
	{NCSAExtendedDomainIPList, PatternNCSAExtendedDomainIPList},
	{NCSAExtendedDomain, PatternNCSAExtendedDomain},
	{NCSAExtendedIPList, PatternNCSAExtendedIPList},
	{NCSAExtended, PatternNCSAExtended},
	{BunnyEdge, PatternBunnyEdge},
}

// BuiltinNames returns the built-in grammar names in priority order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinPatterns))
	for _, b := range builtinPatterns {
		names = append(names, b.name)
	}
	return names
}
