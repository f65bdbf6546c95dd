// Package lazymodal implements lazily activated modal containers.
//
// A <lazy-modal> element declares the stylesheets, scripts and markup it
// needs, and the triggers that open it. Nothing is fetched until a trigger
// shows intent or the modal becomes visible; then the resources are
// attached, the content injected, and the element revealed as a popover.
//
// # Registry
//
// A Registry holds everything modals share: the fetch cache, the record of
// resources already in the document head, the path resolver and the
// content fragments it can serve.
//
//	reg := lazymodal.NewRegistry(
//	    lazymodal.WithBase("https://example.com/_lm"),
//	    lazymodal.WithLogger(logger),
//	)
//	http.Handle("/_lm/", http.StripPrefix("/_lm", reg.Handler()))
//
// # Modals
//
// Modals are bound to elements of a lib/dom document. Attach wires the
// triggers; Detach revokes every listener at once.
//
//	doc, _ := dom.ParseString(page, dom.WithHost(reg.Host(run)))
//	modals, _ := reg.Scan(doc)
//	for _, m := range modals {
//	    _ = m.Attach(ctx)
//	}
//
// The load-on attribute picks what starts loading:
//   - hover (default): pointer-enter or focus of a trigger
//   - click: only a click
//   - visible: a trigger becoming visible
//   - load: attaching the modal
//
// In every mode a click loads and toggles the modal, and the modal
// becoming visible itself loads it.
//
// # Caching and deduplication
//
// Each resource address is fetched at most once per Registry, however many
// modals reference it. Failures are cached too: a failed stylesheet becomes
// an empty one, failed markup becomes empty text, and the load carries on.
// Load.Wait returns a Report listing what failed.
//
// Modals with in-head attach their resources to the shared document head,
// where each address is attached once. Other modals attach their own copy
// inside the element.
//
// # Fragments
//
// Content can be rendered by the server from templ components:
//
//	reg.Fragment("terms", func(ctx context.Context, v lazymodal.Values) templ.Component {
//	    return terms(v.String("lang"))
//	})
//	path, _ := reg.FragmentPath("terms", lazymodal.Values{"lang": "en"})
//	lazymodal.Tag(lazymodal.Config{Triggers: "#terms", Content: path}, nil)
//
// Fragment values are msgpack encoded and signed; call Sensitive to
// encrypt them instead.
package lazymodal
