package stats

import "strings"

// DefaultSite receives events that arrive without a site identifier, matching
// the single-site deployments that predate multi-site tracking.
const DefaultSite = "portfolio"

// siteAliases maps accepted spellings (including Spanish and diacritic forms
// sent by older front-ends) onto canonical site keys.
var siteAliases = map[string]string{
	"portfolio":  DefaultSite,
	"portafolio": DefaultSite,
	"principal":  DefaultSite,
	"blog":       "blog",
	"bitacora":   "blog",
	"bitácora":   "blog",
}

// ResolveSite maps a raw site identifier to its canonical key. Empty input
// resolves to the default site; unrecognized input is rejected.
func ResolveSite(raw string) (string, bool) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if id == "" {
		return DefaultSite, true
	}
	site, ok := siteAliases[id]
	return site, ok
}
