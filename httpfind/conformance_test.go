package httpfind

import (
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/findertest"
)

func TestConformance(t *testing.T) {
	findertest.Run(t, func(t *testing.T) findertest.Fixture {
		srv, _ := serveBundle(t, "/bundles/app.zip", zipBytes(t, map[string]string{
			"com/acme/one.txt": "1",
			"com/acme/two.txt": "2",
		}))
		return findertest.Fixture{
			Factory:  NewFactory(WithCacheDir(t.TempDir())),
			Location: srv.URL + "/bundles/app.zip!/com/acme",
			Want: map[string]string{
				"one.txt": "1",
				"two.txt": "2",
			},
			ReadOnly: true,
		}
	})
}
