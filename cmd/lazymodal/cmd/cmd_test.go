package cmd_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pthm/lazymodal"
	"github.com/pthm/lazymodal/cmd/lazymodal/cmd"
	"github.com/pthm/lazymodal/lib/dom"
)

const page = `<!DOCTYPE html><html><head></head><body>
<button id="open">Open</button>
<lazy-modal id="terms" triggers="#open" load-on="click" inner-styles="terms.css" inner-content="terms.html" close-button></lazy-modal>
<lazy-modal id="promo" in-head triggers="#nothing" inner-scripts="https://cdn.test/promo.js"></lazy-modal>
</body></html>`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := cmd.NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writePage(t *testing.T, markup string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(markup), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	root := cmd.NewRootCommand()
	assert.Equal(t, "lazymodal", root.Use)

	out, _, err := execute(t, "--help")
	assert.NoError(t, err)
	assert.Contains(t, out, "lazy-modal")
	for _, sub := range []string{"render", "inspect", "load", "serve", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, cmd.PrintVersion()+"\n", out)
	assert.Contains(t, out, "lazymodal version")
}

func TestRenderCommand(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		expect string
	}{
		{
			name:   "defaults",
			args:   []string{"render"},
			expect: `<lazy-modal popover></lazy-modal>`,
		},
		{
			name: "full",
			args: []string{"render", "--id", "terms", "--triggers", "#open", "--load-on", "click",
				"--styles", "a.css,b.css", "--content", "terms.html", "--close-button"},
			expect: `<lazy-modal popover id="terms" triggers="#open" load-on="click" inner-styles="a.css, b.css" inner-content="terms.html" close-button></lazy-modal>`,
		},
		{
			name:   "unknown mode falls back to hover",
			args:   []string{"render", "--load-on", "scroll"},
			expect: `<lazy-modal popover></lazy-modal>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, strings.TrimSpace(out))
		})
	}
}

func TestInspect(t *testing.T) {
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	reg := lazymodal.NewRegistry(lazymodal.WithBase("https://example.test/lm"))

	infos, err := cmd.Inspect(reg, doc)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, cmd.ModalInfo{
		ID:          "terms",
		Mode:        "click",
		Triggers:    1,
		Mount:       "self",
		Styles:      []string{"https://example.test/lm/terms.css"},
		Scripts:     []string{},
		Content:     "https://example.test/lm/terms.html",
		CloseButton: true,
	}, infos[0])

	assert.Equal(t, "promo", infos[1].ID)
	assert.Equal(t, "head", infos[1].Mount)
	assert.Equal(t, 0, infos[1].Triggers)
	assert.Equal(t, []string{"https://cdn.test/promo.js"}, infos[1].Scripts)
}

func TestInspectCommand(t *testing.T) {
	path := writePage(t, page)

	out, errOut, err := execute(t, "inspect", "--base", "https://example.test/lm", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "terms")
	assert.Contains(t, out, "https://example.test/lm/terms.html")
	assert.Contains(t, errOut, "warning: promo")

	out, _, err = execute(t, "inspect", "-o", "yaml", "--base", "https://example.test/lm", path)
	require.NoError(t, err)
	var infos []cmd.ModalInfo
	require.NoError(t, yaml.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "click", infos[0].Mode)
	assert.True(t, infos[0].CloseButton)

	_, _, err = execute(t, "inspect", "-o", "json", path)
	assert.Error(t, err)

	_, _, err = execute(t, "inspect", filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func newAssetServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadAll(t *testing.T) {
	srv := newAssetServer(t, map[string]string{
		"/lm/lazy-modal.css":    ":host { display: block; }",
		"/lm/aria-busy.css":     "[aria-busy] { cursor: progress; }",
		"/lm/close-button.html": `<button class="lazy-modal-close">x</button>`,
		"/lm/a.css":             "p { color: red; }",
		"/lm/body.html":         `<p class="body">Body</p>`,
	})
	markup := `<button id="open">Open</button>
		<lazy-modal id="ok" triggers="#open" inner-styles="a.css" inner-content="body.html"></lazy-modal>
		<lazy-modal id="broken" triggers="#open" inner-styles="missing.css"></lazy-modal>`
	reg := lazymodal.NewRegistry(lazymodal.WithBase(srv.URL + "/lm"))
	doc, err := dom.ParseString(markup, dom.WithHost(reg.Host(nil)))
	require.NoError(t, err)

	reports, err := cmd.LoadAll(context.Background(), reg, doc)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "ok", reports[0].ID)
	assert.True(t, reports[0].Report.OK())
	assert.Equal(t, "broken", reports[1].ID)
	require.Len(t, reports[1].Report.Failed, 1)
	assert.Equal(t, srv.URL+"/lm/missing.css", reports[1].Report.Failed[0].Address)
	assert.True(t, lazymodal.IsFetchError(reports[1].Report.Err()))

	assert.Contains(t, doc.String(), `<p class="body">Body</p>`)

	trigger, err := doc.Query("#open")
	require.NoError(t, err)
	assert.Zero(t, trigger.ListenerCount(dom.EventClick), "modals should be detached")
}

func TestLoadCommand(t *testing.T) {
	srv := newAssetServer(t, map[string]string{
		"/lm/body.html": `<p class="body">Body</p>`,
	})
	path := writePage(t, `<lazy-modal id="m" inner-content="body.html"></lazy-modal>`)

	out, _, err := execute(t, "load", "--base", srv.URL+"/lm", "--html", path)
	require.NoError(t, err)
	assert.Contains(t, out, "m: ok")
	assert.Contains(t, out, `<p class="body">Body</p>`)

	_, _, err = execute(t, "load", "--base", "/_lm", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute")

	path = writePage(t, `<lazy-modal id="m" inner-content="gone.html"></lazy-modal>`)
	out, _, err = execute(t, "load", "--base", srv.URL+"/lm", path)
	assert.Error(t, err)
	assert.Contains(t, out, "m: 1 failed")
}
