// Package scraper fetches and parses xoso.com.vn daily result pages.
//
// Each region publishes one page per date at {base}/{slug}-{DD-MM-YYYY}.html.
// The page holds a table with class "table-result"; for multi-province regions
// the header row names the provinces and every following row is one prize tier
// with one cell per province. Parse turns such a table into per-province maps of
// printed number tokens and rejects pages whose draw is still in progress.
package scraper
