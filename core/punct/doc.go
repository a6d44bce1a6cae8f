// Package punct normalizes mixed Chinese/English prose.
//
// The normalizer is a pure text -> text pass that runs line by line. Each line
// goes through a fixed pipeline:
//
//   - Eleven rewrite rules convert full-width punctuation to half-width ASCII
//     punctuation with canonical spacing (see Rules).
//   - InsertSpacing adds a space at every boundary between a non-ASCII
//     character and an ASCII letter or digit.
//   - PostProcessMarkers removes spaces left just inside paired emphasis
//     markers such as "**".
//
// The order is load-bearing: later passes read the exact spacing produced by
// earlier ones, and the marker cleanup must run last so no rule can put a
// removed space back.
//
// # Rules
//
// Two shapes of rule exist. A SimpleRule splits the line on its mark, trims and
// drops empty fragments, keeps a trailing mark, and rejoins with "X ". A
// BracketRule handles the bracket and quote marks: the open side joins with
// " X" as a separator, the close side decides per fragment whether the closer
// is followed by a space, suppressing it before punctuation.
//
// # Offsets
//
// All offsets (PairMatch) are counted in Unicode scalar values, never bytes.
//
// # Example
//
//	out := punct.Normalize("价格：100元；数量：5个。下一句")
//	// out == "价格: 100 元; 数量: 5 个. 下一句"
//
// The package has no global mutable state. Normalize is safe for concurrent
// use, and NormalizeConcurrent spreads lines across a worker pool with output
// identical to Normalize.
package punct
