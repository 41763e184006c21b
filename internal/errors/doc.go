// Package errors provides structured, coded errors for domsync.
//
// Every failure the engine can report has a registered code (e.g. "D001")
// that maps to a category, a short message, and a longer explanation. Codes
// make failures greppable in logs and let callers test for them with the
// standard library:
//
//	if errors.Is(err, morph.ErrUnterminatedIsland) { ... }
//
// errors.Is matches two *Error values when their codes are equal, so a
// sentinel created with New matches any error carrying the same code,
// regardless of detail or path.
//
// # Error Categories
//
//   - reconcile: invariant violations during a reconciliation pass
//   - marker: island marker stream problems
//   - config: configuration loading and validation
//   - cli: command line and preview server input problems
//
// # Usage
//
//	err := errors.New("D002").
//	    WithPath("html>body>div[1]").
//	    WithDetail(`no end marker for island "c7"`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR D002: Unterminated island
//	//
//	//   at html>body>div[1]
//	//
//	//   no end marker for island "c7"
package errors
