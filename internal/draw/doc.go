// Package draw provides the record types and prize schemas for lottery draw results.
//
// A draw is the set of winning numbers for one region on one date, and for
// multi-province regions one province. Single-draw regions (MB) store one
// SingleRecord per date; multi-province regions (MN, MT) store one
// ProvinceRecord per province per date. Schemas describe each region's prize
// tiers as data, including the chunk width used to split tiers printed as one
// undivided digit string, so record building stays generic.
package draw
