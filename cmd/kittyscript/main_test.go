package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.kitty")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	tests := map[string]struct {
		src      string
		sqlite   bool
		expErr   string
		expLines []string
	}{
		"memory": {
			src: "as alice create\nas alice transfer bob 1\nas carol transfer bob 1 expect NotOwner\n",
			expLines: []string{
				"line 1 block 1 #0 alice create(): ok [created 1 -> alice]",
				"line 2 block 1 #1 alice transfer(bob, 1): ok [transferred 1 -> bob]",
				"line 3 block 1 #2 carol transfer(bob, 1): NotOwner",
				"kitties: 1",
			},
		},
		"sqlite": {
			src:    "as alice create\nblock\nas bob create\n",
			sqlite: true,
			expLines: []string{
				"line 3 block 2 #0 bob create(): ok [created 2 -> bob]",
				"kitties: 2",
			},
		},
		"failed expectation": {
			src:    "as alice transfer bob 1\n",
			expErr: "expected ok, got NotOwner",
			expLines: []string{
				"line 1 block 1 #0 alice transfer(bob, 1): NotOwner",
			},
		},
		"parse error": {
			src:    "as\n",
			expErr: "parsing script",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var db string
			if tt.sqlite {
				db = filepath.Join(t.TempDir(), "kitties.db")
			}

			out := &bytes.Buffer{}
			err := run(context.Background(), out, writeScript(t, tt.src), "", db)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for _, line := range tt.expLines {
				if !strings.Contains(out.String(), line) {
					t.Errorf("output missing %q:\n%s", line, out.String())
				}
			}
		})
	}
}
