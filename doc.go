// Package tags extracts symbol tags from source code with tree-sitter
// queries. A tag names a definition or reference (function, method, class,
// module, interface or call) and carries the byte ranges of its name, its
// line and the whole construct, plus any documentation attached to it.
//
// # Queries
//
// A tags query is a list of tree-sitter patterns. Each pattern has exactly
// one kind capture (@function, @definition.class, @reference.call, ...) on
// the node it describes, an optional @name capture for the tag's name and
// any number of @doc captures for its documentation. Two predicates shape
// the docs:
//
//	(#strip! @doc "regex")          remove every match of regex from each doc
//	(#select-adjacent! @doc @class) keep only the doc nodes directly above @class
//
// and #eq?, #not-eq?, #match? and #not-match? filter matches as usual.
//
// # Usage
//
// Compile a query once, then generate tags with a Context per goroutine:
//
//	cfg, err := tags.NewConfiguration(python.GetLanguage(), querySource)
//	if err != nil { ... }
//
//	tc := tags.NewContext()
//	defer tc.Close()
//
//	seq, err := tc.GenerateFromSource(ctx, cfg, source)
//	for tag := range seq {
//		fmt.Println(tag.Kind, tag.Name(source))
//	}
//
// Tags come out in pre-order of the nodes they describe. When several
// patterns match the same node, the first one in the query wins.
//
// A Loader supplies Configurations for the built-in languages, and an Engine
// keeps a SQLite index of the tags in a directory tree for lookup.
package tags
