package snapshot

import (
	"regexp"
	"strings"
	"time"

	"bitbucket.org/surdata/pedidos_backend/utils"
)

// Provider names exported from a branch often carry a decoration like
// "Acme (Sucursal Centro)". The suffix is display-only and is stripped both
// on export and when building natural keys.
var branchSuffixRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

func StripBranchSuffix(name string) string {
	return strings.TrimSpace(branchSuffixRe.ReplaceAllString(name, ""))
}

// ProviderNameKey is the natural key of a provider within a scope:
// case-insensitive, whitespace-collapsed, decoration-stripped.
func ProviderNameKey(name string) string {
	return utils.NormalizeName(StripBranchSuffix(name))
}

// weekKey is the natural key of a week within a scope.
func weekKey(weekStart time.Time) string {
	return weekStart.UTC().Format("2006-01-02")
}
