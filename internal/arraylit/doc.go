// Package arraylit rewrites SQL ARRAY[...] literals into their canonical,
// single-quoted form.
//
// Matching is deliberately regex based and mirrors the seed fixing script this
// tool replaces:
//
//	literal: ARRAY\[([^\]]+)\]   first ']' closes the literal, payload is non-empty
//	item:    ["']([^"']+)["']    either quote kind on either side
//
// Items are joined as ARRAY['a','b']. Payload text outside quotes is dropped;
// a literal without any quoted item is left as is. The package does no IO:
// Normalize maps content to content and Report turns what was lost into
// diagnostics.
package arraylit
