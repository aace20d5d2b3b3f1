// Package scoreboard owns the canonical scoreboard Document and its two update paths.
//
// MergeTeam applies a partial team patch field by field and keeps a player's agent
// when the patch is silent about it. ReplaceTopLevel overwrites whole top-level
// fields without merging. Both commit through a persistence hook before the new
// state becomes visible, so a failed save leaves the previous state in place.
package scoreboard
