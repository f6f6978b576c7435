package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/url"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"newscurator/internal/fingerprint"
	"newscurator/internal/news"
)

// trackingParams are query parameters stripped during URL canonicalization.
// utm_* is handled by prefix.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"igshid":  {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
	"source":  {},
}

// Result holds the outcome of deduplicating one batch.
type Result struct {
	Unique     []*news.Item
	Duplicates int

	// Unmatchable counts items with neither URL nor title. They pass
	// through as unique but signal poor source quality.
	Unmatchable int
}

// Deduplicator removes exact and near-duplicate items from a batch, checking
// both the batch itself and the fingerprint store.
type Deduplicator struct {
	store     *fingerprint.Store
	threshold int
	metric    *metrics.Levenshtein
}

// New creates a deduplicator. threshold is on a 0-100 scale; title pairs
// scoring at or above it are duplicates.
func New(store *fingerprint.Store, threshold int) *Deduplicator {
	return &Deduplicator{
		store:     store,
		threshold: threshold,
		metric:    metrics.NewLevenshtein(),
	}
}

// Run deduplicates a batch in place. Items must arrive in deterministic
// order (arrival order per source, sources in configuration order); ties
// always keep the earliest-seen item. Each item leaves with its fingerprint
// computed and status set to Unique or Duplicate.
func (d *Deduplicator) Run(items []*news.Item) *Result {
	r := &Result{}
	seen := make(map[string]struct{}, len(items))
	var keptTitles []string
	sessionTitles := d.store.SessionTitles()

	for _, item := range items {
		canonical := CanonicalizeURL(item.URL)
		titleNorm := NormalizeTitle(item.Title)
		item.Fingerprint = Fingerprint(canonical, titleNorm)

		if item.Fingerprint == "" {
			// Nothing to match on; keep it but flag the source.
			log.Printf("item from %s has neither URL nor title; cannot deduplicate", item.SourceID)
			item.Status = news.StatusUnique
			r.Unmatchable++
			r.Unique = append(r.Unique, item)
			continue
		}

		// Exact key first: the store, then earlier items in this batch.
		// An exact URL match always wins, regardless of titles.
		if d.store.Contains(item.Fingerprint) {
			item.Status = news.StatusDuplicate
			r.Duplicates++
			continue
		}
		if _, dup := seen[item.Fingerprint]; dup {
			item.Status = news.StatusDuplicate
			r.Duplicates++
			continue
		}

		// Fuzzy title match against kept batch items and titles committed
		// to the store during this session. Items without a title rely on
		// the exact key alone and are never discarded here.
		if titleNorm != "" && (d.matchesAny(titleNorm, keptTitles) || d.matchesAny(titleNorm, sessionTitles)) {
			item.Status = news.StatusDuplicate
			r.Duplicates++
			continue
		}

		item.Status = news.StatusUnique
		seen[item.Fingerprint] = struct{}{}
		if titleNorm != "" {
			keptTitles = append(keptTitles, titleNorm)
		}
		r.Unique = append(r.Unique, item)
	}

	return r
}

func (d *Deduplicator) matchesAny(titleNorm string, against []string) bool {
	for _, other := range against {
		if Similarity(titleNorm, other, d.metric) >= d.threshold {
			return true
		}
	}
	return false
}

// Similarity scores two normalized titles on a 0-100 scale using normalized
// Levenshtein similarity.
func Similarity(a, b string, metric *metrics.Levenshtein) int {
	if metric == nil {
		metric = metrics.NewLevenshtein()
	}
	return int(strutil.Similarity(a, b, metric)*100 + 0.5)
}

// CanonicalizeURL normalizes a URL for exact-match deduplication: lowercase
// scheme and host, no fragment, no tracking query parameters, no default
// port, no trailing slash. Unparseable input is returned trimmed.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			q.Del(key)
			continue
		}
		if _, tracking := trackingParams[lower]; tracking {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// NormalizeTitle lowercases a title, strips punctuation, and collapses
// whitespace, leaving only letters, digits and single spaces.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Fingerprint derives the identity key: sha256 of the canonical URL when one
// exists, of the normalized title otherwise. Empty when the item has neither.
func Fingerprint(canonicalURL, titleNorm string) string {
	switch {
	case canonicalURL != "":
		return hashOf("url:" + canonicalURL)
	case titleNorm != "":
		return hashOf("title:" + titleNorm)
	default:
		return ""
	}
}

func hashOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
