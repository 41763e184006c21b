// Package preview serves a live host document that candidates are
// reconciled into.
//
// The server keeps one parsed document. Every POST /sync parses the request
// body as a full HTML document and runs one reconciliation pass against the
// stored document under a mutex; subscribers on /_domsync/ws receive the
// pass statistics and the resulting markup, numbered in pass order. A Watcher can drive the same
// path from a file on disk:
//
//	srv := preview.NewServer(doc, preview.Options{Markers: morph.JSONMarkers{}})
//	w := preview.NewWatcher("candidate.html", 500*time.Millisecond)
//	w.OnChange(func(path string) {
//	    f, err := os.Open(path)
//	    ...
//	    srv.Sync(ctx, f)
//	})
//	go w.Start(ctx)
//	srv.ListenAndServe(ctx, "localhost:7070")
//
// Routes:
//
//	GET  /             current document, with a reload script
//	POST /sync         reconcile the body into the document
//	GET  /_domsync/ws  pass feed
//	GET  /stats        running pass totals
//	GET  /metrics      Prometheus registry
//	GET  /healthz      liveness
package preview
