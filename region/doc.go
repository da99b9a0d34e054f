// Package region detects the regions a flow graph is reduced along: natural
// loops, try and with protected ranges, and two-way conditionals.
//
// Detection is a pure query over the current graph. The structuring engine
// runs it again after every reduction, so a region that is not ready yet
// (its inner parts still being several blocks) is simply reported again on
// the next pass.
//
// Regions are ordered innermost first: by depth of their entry in the
// dominator tree, deepest first, with loops before protected ranges before
// conditionals at equal depth, then by entry index.
package region
